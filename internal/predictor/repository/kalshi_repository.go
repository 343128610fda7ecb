package repository

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang-market-oracle/internal/predictor/config"
	"golang-market-oracle/internal/predictor/dto"
	"golang-market-oracle/pkg/logger"

	"golang.org/x/time/rate"
)

var kalshiValidStatuses = map[string]bool{
	"unopened": true,
	"open":     true,
	"closed":   true,
	"settled":  true,
}

type kalshiRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	privateKey     *rsa.PrivateKey
}

// NewKalshiRepository creates a KalshiRepository. Requests are authenticated
// with an RSA-SHA256 signature over timestamp+method+path, sent in the
// KALSHI-ACCESS-* headers.
func NewKalshiRepository(cfg *config.Config, log *logger.Logger) (KalshiRepository, error) {
	key, err := loadKalshiPrivateKey(cfg.Kalshi.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load Kalshi private key: %w", err)
	}

	secondsPerRequest := time.Minute / time.Duration(cfg.Kalshi.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &kalshiRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		requestLimiter: requestLimiter,
		privateKey:     key,
	}, nil
}

// loadKalshiPrivateKey parses a PKCS#8 PEM key. Literal "\n" sequences are
// replaced with newlines so the key can be passed through an env var.
func loadKalshiPrivateKey(pemData string) (*rsa.PrivateKey, error) {
	decoded := strings.ReplaceAll(pemData, `\n`, "\n")
	block, _ := pem.Decode([]byte(decoded))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in private key")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Older exports use PKCS#1.
		if rsaKey, err2 := x509.ParsePKCS1PrivateKey(block.Bytes); err2 == nil {
			return rsaKey, nil
		}
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not an RSA key")
	}
	return rsaKey, nil
}

func (r *kalshiRepository) signRequest(timestamp, method, path string) (string, error) {
	digest := sha256.Sum256([]byte(timestamp + method + path))
	signature, err := rsa.SignPKCS1v15(rand.Reader, r.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

func (r *kalshiRepository) GetMarkets(ctx context.Context, limit int, status string, minVolume int) ([]dto.KalshiMarket, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	params := url.Values{}
	if limit <= 0 {
		limit = 100
	}
	params.Set("limit", strconv.Itoa(limit))

	if !kalshiValidStatuses[status] {
		if status != "" {
			r.log.Warn("Invalid Kalshi status value, using 'open' instead", logger.StringField("status", status))
		}
		status = "open"
	}
	params.Set("status", status)

	if minVolume > 0 {
		params.Set("min_volume", strconv.Itoa(minVolume))
	}

	const path = "/trade-api/v2/markets"
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature, err := r.signRequest(timestamp, http.MethodGet, path)
	if err != nil {
		return nil, err
	}

	reqURL := r.cfg.Kalshi.BaseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("KALSHI-ACCESS-KEY", r.cfg.Kalshi.APIKeyID)
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", signature)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Kalshi API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		r.log.Error("Received non-OK response from Kalshi API", logger.IntField("status_code", resp.StatusCode))
		return nil, fmt.Errorf("received non-OK response from Kalshi API: %d - %s", resp.StatusCode, string(body))
	}

	var marketsResp dto.KalshiMarketsResponse
	if err := json.Unmarshal(body, &marketsResp); err != nil {
		return nil, fmt.Errorf("failed to decode Kalshi markets response: %w", err)
	}

	return marketsResp.Markets, nil
}
