package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// ServiceConfig drives the telemetry-service binary.
type ServiceConfig struct {
	MQTTBrokerURL string
	MQTTClientID  string
	MQTTTopic     string
	MQTTQoS       int
	MQTTUsername  string // optional
	MQTTPassword  string // optional

	KafkaBrokers     []string
	KafkaNotifyTopic string
	KafkaDLQTopic    string

	InfluxURL         string
	InfluxToken       string
	InfluxOrg         string
	InfluxBucket      string
	InfluxMeasurement string

	RedisAddr           string
	RedisPassword       string // optional
	RedisDB             int
	RedisNamespace      string
	RedisUsePubSub      bool
	RedisInvalidateChan string
	RedisTimeoutMs      int
	CacheTTLSeconds     int
	TestRobotIDs        []string // optional allow-list of non-UUID ids
}

// ArchiverConfig drives the batch-archiver binary.
type ArchiverConfig struct {
	KafkaBrokers    string
	KafkaGroupID    string
	KafkaInputTopic string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseTLS    bool
	MinIOBucket    string

	ArchiveBasePath      string
	ArchiveCompression   string
	ArchiveMaxRows       int
	ArchiveMaxBytes      int64
	ArchiveMaxIntervalMs int
}

type errList []string

func (e *errList) addf(format string, a ...any) { *e = append(*e, fmt.Sprintf(format, a...)) }
func (e *errList) has() bool                    { return len(*e) > 0 }

func getRequired(key string, errs *errList) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		errs.addf("missing %s", key)
	}
	return v
}

func getOptional(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getOptionalInt(key string, def int, errs *errList) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		errs.addf("%s invalid (expected int): %q", key, v)
		return def
	}
	return n
}

func getRequiredInt(key string, errs *errList) int {
	v := getRequired(key, errs)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		errs.addf("%s invalid (expected int): %q", key, v)
		return 0
	}
	return n
}

func getRequiredInt64(key string, errs *errList) int64 {
	v := getRequired(key, errs)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		errs.addf("%s invalid (expected int64): %q", key, v)
		return 0
	}
	return n
}

func getOptionalBool(key string, def bool, errs *errList) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		errs.addf("%s invalid (use true/false or 1/0): %q", key, v)
		return def
	}
}

func ensureOneOf(key, val string, allowed []string, errs *errList) {
	for _, a := range allowed {
		if val == a {
			return
		}
	}
	errs.addf("%s invalid (allowed: %s): %q", key, strings.Join(allowed, ", "), val)
}

func parseList(list string) []string {
	var out []string
	for _, b := range strings.Split(list, ",") {
		if s := strings.TrimSpace(b); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func fail(errs errList) error {
	for _, e := range errs {
		log.Printf("[config] %s", e)
	}
	return errors.New("missing/invalid environment variables, see logs above")
}

func LoadServiceConfig() (*ServiceConfig, error) {
	var errs errList

	cfg := &ServiceConfig{
		MQTTBrokerURL: getRequired("MQTT_BROKER_URL", &errs),
		MQTTClientID:  getOptional("MQTT_CLIENT_ID", "telemetry-service"),
		MQTTTopic:     getOptional("MQTT_TOPIC", "fleet/+/telemetry"),
		MQTTQoS:       getOptionalInt("MQTT_QOS", 1, &errs),
		MQTTUsername:  os.Getenv("MQTT_USERNAME"),
		MQTTPassword:  os.Getenv("MQTT_PASSWORD"),

		KafkaBrokers:     parseList(getRequired("KAFKA_BROKERS", &errs)),
		KafkaNotifyTopic: getOptional("KAFKA_NOTIFY_TOPIC", "telemetry.ingested"),
		KafkaDLQTopic:    getOptional("KAFKA_DLQ_TOPIC", "telemetry.dlq"),

		InfluxURL:         getRequired("INFLUX_URL", &errs),
		InfluxToken:       getRequired("INFLUX_TOKEN", &errs),
		InfluxOrg:         getRequired("INFLUX_ORG", &errs),
		InfluxBucket:      getRequired("INFLUX_BUCKET", &errs),
		InfluxMeasurement: getOptional("INFLUX_MEASUREMENT", "telemetry"),

		RedisAddr:           getRequired("REDIS_ADDR", &errs),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getOptionalInt("REDIS_DB", 0, &errs),
		RedisNamespace:      getOptional("REDIS_NAMESPACE", "fleet"),
		RedisUsePubSub:      getOptionalBool("REDIS_USE_PUBSUB", false, &errs),
		RedisInvalidateChan: getOptional("REDIS_INVALIDATE_CHANNEL", "robots:invalidate"),
		RedisTimeoutMs:      getOptionalInt("REDIS_TIMEOUT_MS", 5000, &errs),
		CacheTTLSeconds:     getOptionalInt("CACHE_TTL_SECONDS", 300, &errs),
		TestRobotIDs:        parseList(os.Getenv("TEST_ROBOT_IDS")),
	}

	if cfg.MQTTQoS < 0 || cfg.MQTTQoS > 2 {
		errs.addf("MQTT_QOS must be 0, 1 or 2")
	}
	if len(cfg.KafkaBrokers) == 0 {
		errs.addf("KAFKA_BROKERS must list at least 1 broker")
	}
	if cfg.CacheTTLSeconds <= 0 {
		errs.addf("CACHE_TTL_SECONDS must be > 0")
	}
	if cfg.RedisTimeoutMs <= 0 {
		errs.addf("REDIS_TIMEOUT_MS must be > 0")
	}

	if errs.has() {
		return nil, fail(errs)
	}
	return cfg, nil
}

func LoadArchiverConfig() (*ArchiverConfig, error) {
	var errs errList

	cfg := &ArchiverConfig{
		KafkaBrokers:    getRequired("KAFKA_BROKERS", &errs),
		KafkaGroupID:    getOptional("KAFKA_GROUP_ID", "batch-archiver"),
		KafkaInputTopic: getOptional("KAFKA_INPUT_TOPIC", "telemetry.ingested"),

		MinIOEndpoint:  getRequired("MINIO_ENDPOINT", &errs),
		MinIOAccessKey: getRequired("MINIO_ACCESS_KEY", &errs),
		MinIOSecretKey: getRequired("MINIO_SECRET_KEY", &errs),
		MinIOUseTLS:    getOptionalBool("MINIO_USE_TLS", false, &errs),
		MinIOBucket:    getRequired("MINIO_BUCKET", &errs),

		ArchiveBasePath:      getOptional("ARCHIVE_BASE_PATH", "telemetry"),
		ArchiveCompression:   getOptional("ARCHIVE_COMPRESSION", "SNAPPY"),
		ArchiveMaxRows:       getRequiredInt("ARCHIVE_MAX_ROWS", &errs),
		ArchiveMaxBytes:      getRequiredInt64("ARCHIVE_MAX_BYTES", &errs),
		ArchiveMaxIntervalMs: getRequiredInt("ARCHIVE_MAX_INTERVAL_MS", &errs),
	}

	ensureOneOf("ARCHIVE_COMPRESSION", cfg.ArchiveCompression, []string{"SNAPPY", "GZIP", "ZSTD"}, &errs)
	if cfg.ArchiveMaxRows <= 0 {
		errs.addf("ARCHIVE_MAX_ROWS must be > 0")
	}
	if cfg.ArchiveMaxBytes <= 0 {
		errs.addf("ARCHIVE_MAX_BYTES must be > 0")
	}
	if cfg.ArchiveMaxIntervalMs <= 0 {
		errs.addf("ARCHIVE_MAX_INTERVAL_MS must be > 0")
	}

	if errs.has() {
		return nil, fail(errs)
	}
	return cfg, nil
}
