package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "PLANNER_"

type Application struct {
	Host       string     `koanf:"host"`
	Port       int        `koanf:"port"`
	Google     Google     `koanf:"google"`
	Database   Database   `koanf:"db"`
	Scheduling Scheduling `koanf:"scheduling"`
	Intent     Intent     `koanf:"intent"`
}

type Google struct {
	ClientId     string `koanf:"clientid"`
	ClientSecret string `koanf:"clientsecret"`
}

type Database struct {
	// Driver is either "postgres" or "sqlite".
	Driver string `koanf:"driver"`
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
	// Path is the sqlite database file.
	Path string `koanf:"path"`
}

// Scheduling holds the engine settings. Durations are in minutes.
type Scheduling struct {
	DefaultDuration     int      `koanf:"defaultduration"`
	MinDuration         int      `koanf:"minduration"`
	MaxDuration         int      `koanf:"maxduration"`
	SlotGranularity     int      `koanf:"slotgranularity"`
	PriorityOrder       []string `koanf:"priorityorder"`
	DefaultPriority     string   `koanf:"defaultpriority"`
	UnknownPriorityRank int      `koanf:"unknownpriorityrank"`
	MorningPriorities   []string `koanf:"morningpriorities"`
	DefaultTimezone     string   `koanf:"defaulttimezone"`
	// RoutineWeekdays uses Sunday=0 numbering.
	RoutineWeekdays []int `koanf:"routineweekdays"`
}

// Intent configures the natural language parser. Any OpenAI compatible endpoint works.
type Intent struct {
	Enabled           bool    `koanf:"enabled"`
	ApiKey            string  `koanf:"apikey"`
	BaseUrl           string  `koanf:"baseurl"`
	Model             string  `koanf:"model"`
	TimeoutSeconds    int     `koanf:"timeoutseconds"`
	RequestsPerSecond float64 `koanf:"requestspersecond"`
}

// listKeys are the settings whose environment values are given comma separated.
var listKeys = map[string]bool{
	"scheduling.priorityorder":     true,
	"scheduling.morningpriorities": true,
	"scheduling.routineweekdays":   true,
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:8181",
		Port: 8181,
		Database: Database{
			Driver: "postgres",
			Host:   "localhost",
			Port:   5432,
			User:   "planner",
			Pass:   "",
			Name:   "planner",
			Schema: "planner",
			Path:   "planner.db",
		},
		Scheduling: Scheduling{
			DefaultDuration:     60,
			MinDuration:         15,
			MaxDuration:         480,
			SlotGranularity:     15,
			PriorityOrder:       []string{"low", "medium", "high", "urgent"},
			DefaultPriority:     "medium",
			UnknownPriorityRank: 0,
			MorningPriorities:   []string{"high", "urgent"},
			DefaultTimezone:     "UTC",
			RoutineWeekdays:     []int{1, 2, 3, 4, 5},
		},
		Intent: Intent{
			Enabled:           false,
			BaseUrl:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			TimeoutSeconds:    15,
			RequestsPerSecond: 1,
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			if listKeys[k] {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
