//Package conf loads and hot-reloads the API configuration from a JSON file.
package conf

import (
	"encoding/json"
	"flag"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	config     *Config
	configLock = new(sync.RWMutex)
	confPath   = flag.String("conf", "conf.json", "path to config file")
	once       sync.Once
)

//GetConfig returns a pointer to the current API configuration.
func GetConfig() *Config {
	once.Do(configInit)
	configLock.RLock()
	defer configLock.RUnlock()
	return config
}

func configInit() {
	if !flag.Parsed() {
		flag.Parse()
	}
	loadConfig(true)
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGUSR2)
	go func() {
		for {
			<-s
			loadConfig(false)
			log.Println("Reloaded")
		}
	}()
}

func loadConfig(fail bool) {
	file, err := ioutil.ReadFile(*confPath)
	if err != nil {
		log.Println("Opening config failed: ", err)
		if fail {
			os.Exit(1)
		}
	}

	c := new(Config)
	if err = json.Unmarshal(file, c); err != nil {
		log.Println("Parsing config failed: ", err)
		if fail {
			os.Exit(1)
		}
	}
	configLock.Lock()
	config = c
	configLock.Unlock()
}

//MysqlConfig represents the database configuration.
type MysqlConfig struct {
	MaxConns int
	User     string
	Pass     string
	Host     string
	Port     string
}

//ConnectionString returns the db/sql string for connecting to MySQL based on this config.
func (c *MysqlConfig) ConnectionString() string {
	return c.User + ":" + c.Pass + "@tcp(" + c.Host + ":" + c.Port + ")/whistlepost?charset=utf8mb4"
}

//RedisConfig represents the cache configuration.
type RedisConfig struct {
	Proto   string
	Address string
}

//FanoutConfig tunes the interest fan-out engine.
type FanoutConfig struct {
	//ScanTimeoutSecs bounds the candidate scan; 0 means no bound.
	ScanTimeoutSecs int
	//SweepDisabled turns the expired-notification sweep daemon off (eg. when an external sweep owns it).
	SweepDisabled     bool
	SweepIntervalMins int
}

//Config defines all the available configuration for the API.
type Config struct {
	DevelopmentMode bool
	Port            string
	Mysql           MysqlConfig
	Redis           RedisConfig
	Statsd          string
	Fanout          FanoutConfig
}
