package common

const (
	RedisStreamNewsIngestion = "news.ingestion"

	RedisStreamGroup    = "ingestor-group"
	RedisStreamConsumer = "ingestor-consumer"
)
