package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folkloremap/folkloremap-backend/api"
	"github.com/folkloremap/folkloremap-backend/db"
	"github.com/folkloremap/folkloremap-backend/geocode"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rs/zerolog/log"
)

func main() {
	flag.Bool("debug", false, "sets log level to debug")
	flag.Int("port", 3333, "sets the port to listen on")
	flag.String("host", "0.0.0.0", "sets the host to listen on")
	flag.String("secret", "", "sets the secret for JWT")
	flag.String("mongo", "mongodb://localhost:27017", "sets the mongo URI")
	flag.String("dbName", "folkloremap", "sets the mongo database name")
	flag.String("googleMapsApiKey", "", "API key for the Google Geocoding API")
	flag.String("geocodeLanguage", "ja", "language hint for geocoding results")
	flag.String("geocodeRegion", "jp", "region bias for geocoding results")
	flag.Duration("geocodeTimeout", 10*time.Second, "timeout for geocoding requests")
	flag.Bool("metrics", false, "enables prometheus metrics")

	flag.Parse()

	// Initialize Viper
	viper.SetEnvPrefix("FOLKLOREMAP")
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	secret := viper.GetString("secret")
	debug := viper.GetBool("debug")
	metrics := viper.GetBool("metrics")
	// MongoDB vars
	mongoURI := viper.GetString("mongo")
	dbName := viper.GetString("dbName")
	// geocoding vars
	googleMapsAPIKey := viper.GetString("googleMapsApiKey")
	geocodeLanguage := viper.GetString("geocodeLanguage")
	geocodeRegion := viper.GetString("geocodeRegion")
	geocodeTimeout := viper.GetDuration("geocodeTimeout")

	// if no secret is provided, generate a random one
	if secret == "" {
		sb := make([]byte, 32)
		if _, err := rand.Read(sb); err != nil {
			log.Fatal().Err(err).Msg("failed to generate random secret")
		}
		secret = fmt.Sprintf("%x", sb)
		log.Warn().Msgf("no secret provided, using %s", secret)
	}

	// initialize the MongoDB database
	log.Info().Msgf("connecting to database at %s", mongoURI)
	database, err := db.New(mongoURI, dbName)
	if err != nil {
		log.Fatal().Err(err).Msgf("could not create the MongoDB database: %v", err)
	}
	if err := database.CreateIndexes(); err != nil {
		log.Fatal().Err(err).Msg("could not create database indexes")
	}

	// init the API configuration
	apiConf := &api.APIConfig{
		DB:        database,
		JwtSecret: secret,
		Debug:     debug,
	}

	// the geocoder is optional: without an API key the service starts but
	// rejects writes that need address resolution
	if googleMapsAPIKey != "" {
		geocoder, err := geocode.NewGoogleClient(geocode.GoogleConfig{
			APIKey:   googleMapsAPIKey,
			Language: geocodeLanguage,
			Region:   geocodeRegion,
			Timeout:  geocodeTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("could not create the geocoding client")
		}
		apiConf.Geocoder = geocoder
	} else {
		log.Warn().Msg("no googleMapsApiKey provided, geocoding disabled")
	}

	// create service
	a, err := api.New(apiConf)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create service")
	}
	defer a.Close()
	if metrics {
		a.EnablePrometheusMetrics("folkloremap")
	}
	a.Start(host, port)

	log.Info().Msg("startup complete")

	// close if interrupt received
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Warn().Msgf("received SIGTERM, exiting at %s", time.Now().Format(time.RFC850))
	os.Exit(0)
}
