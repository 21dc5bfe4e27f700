package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"consultly/model/model"
)

const DEVELOPMENT = "development"

type DBConf struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SyncConf configuration for the CRM reconciliation pipeline. Built once at
// startup and validated eagerly, never read from ambient state per call.
type SyncConf struct {
	// Identifier of the CRM pipeline deals are pulled from. Required.
	PipelineID string
	// CRM stage identifier to project status. Entries are independently
	// optional, unset stages simply never match.
	StageMap map[string]string
	// Recurring sync interval. Zero disables the recurring job.
	Interval time.Duration
	Enabled  bool
	// Retry policy for the recurring job. Manual runs are never retried.
	MaxRetries     int
	RetryBaseDelay time.Duration
	PageSize       int
}

type Configuration struct {
	AppName   string `json:"app_name"`
	Env       string `json:"env"`
	Port      int    `json:"port"`
	DBInfo    DBConf `json:"db"`
	RedisHost string `json:"redis_host"`
	RedisPort int    `json:"redis_port"`
	AMQPUrl   string `json:"amqp_url"`
	Sync      SyncConf
}

// Secrets credentials pulled from the environment, never from flags.
type Secrets struct {
	CRMAccessToken string `envconfig:"CRM_ACCESS_TOKEN"`
	DBPassword     string `envconfig:"DB_PASSWORD"`
}

type Services struct {
	Db    *gorm.DB
	Redis *redis.Client
}

var configuration *Configuration
var services Services
var secrets Secrets

// InitConf initializes package configuration and logging. Must be called
// before any other Init.
func InitConf(config *Configuration) {
	configuration = config
	initLogging()
}

func initLogging() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	if IsDevelopment() {
		log.SetLevel(log.DebugLevel)
	}
}

func GetConfig() *Configuration {
	return configuration
}

func IsDevelopment() bool {
	return configuration != nil && configuration.Env == DEVELOPMENT
}

// LoadSecrets reads credentials from the environment.
func LoadSecrets() (*Secrets, error) {
	if err := envconfig.Process("consultly", &secrets); err != nil {
		return nil, err
	}
	return &secrets, nil
}

func GetSecrets() *Secrets {
	return &secrets
}

// InitDB connects to postgres and migrates the schema. Unique indexes on the
// external CRM keys and the project code back the pipeline's idempotence
// guarantees at the store level.
func InitDB(dbConf DBConf) error {
	connStr := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s sslmode=disable",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Name, dbConf.Password)

	db, err := gorm.Open("postgres", connStr)
	if err != nil {
		log.WithError(err).Error("Failed connecting to postgres.")
		return err
	}

	if IsDevelopment() {
		db.LogMode(true)
	}

	db.AutoMigrate(&model.Client{}, &model.Person{}, &model.PersonPractice{},
		&model.Project{}, &model.SyncCheckpoint{}, &model.SyncLogEntry{})
	db.Model(&model.Client{}).AddUniqueIndex("uidx_clients_external_company_id", "external_company_id")
	db.Model(&model.Project{}).AddUniqueIndex("uidx_projects_external_deal_id", "external_deal_id")
	db.Model(&model.Project{}).AddUniqueIndex("uidx_projects_code", "code")

	services.Db = db
	return nil
}

func InitRedis(host string, port int) {
	services.Redis = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", host, port),
	})
}

func GetServices() *Services {
	return &services
}

// ParseStageMap parses a comma separated list of stage:STATUS pairs into the
// reconciler's stage map. Statuses outside the closed project status set are
// rejected so a bad mapping fails at startup.
func ParseStageMap(raw string) (map[string]string, error) {
	stageMap := make(map[string]string)
	if raw == "" {
		return stageMap, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid stage mapping entry %q", pair)
		}

		status := strings.ToUpper(strings.TrimSpace(parts[1]))
		if !model.IsValidProjectStatus(status) {
			return nil, fmt.Errorf("unknown project status %q on stage mapping", parts[1])
		}
		stageMap[strings.TrimSpace(parts[0])] = status
	}

	return stageMap, nil
}

// ValidateSyncConf fails fast on a broken pipeline configuration instead of
// deferring to the first run.
func ValidateSyncConf(syncConf *SyncConf) error {
	if syncConf.PipelineID == "" {
		return errors.New("crm pipeline id is not configured")
	}
	if syncConf.PageSize <= 0 {
		return errors.New("invalid crm page size")
	}
	if syncConf.MaxRetries < 0 {
		return errors.New("invalid sync retry count")
	}
	return nil
}
