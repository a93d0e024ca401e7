package main

import (
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vocdoni/stripe-checkout/api"
	"github.com/vocdoni/stripe-checkout/checkout"
	"github.com/vocdoni/stripe-checkout/stripe"
	"go.vocdoni.io/dvote/log"
)

func main() {
	// load a local .env file, variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}
	// define flags
	flag.StringP("host", "h", "0.0.0.0", "listen address")
	flag.IntP("port", "p", 8080, "listen port")
	flag.String("stripeApiUrl", "", "Stripe API base URL, empty for the official API")
	flag.String("clientOrigin", "", "origin of the checkout pages, used for CORS and redirect URLs")
	flag.Bool("corsAllowAll", false, "allow any CORS origin instead of the client origin")
	flag.Bool("savedMethodReuse", false, "offer saved bank accounts to returning customers")
	flag.Bool("invoiceMetadata", true, "attach invoice ids to payment metadata and redirect URLs")
	flag.String("invoiceMetadataKey", checkout.DefaultInvoiceMetadataKey, "metadata key of invoice ids")
	flag.Bool("cardFallback", false, "accept cards and Link besides US bank accounts")
	flag.String("currency", checkout.DefaultCurrency, "currency of the charged amounts")
	flag.String("productName", checkout.DefaultProductName, "line item name of payments without invoice")
	flag.String("logLevel", "info", "log level (debug, info, warn, error)")
	// parse flags
	flag.Parse()
	// initialize Viper
	viper.SetEnvPrefix("CHECKOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := viper.BindPFlags(flag.CommandLine); err != nil {
		panic(err)
	}
	// the Stripe secrets keep their conventional names
	if err := viper.BindEnv("stripeSecretKey", "STRIPE_SECRET_KEY"); err != nil {
		panic(err)
	}
	if err := viper.BindEnv("stripeWebhookSecret", "STRIPE_WEBHOOK_SECRET"); err != nil {
		panic(err)
	}
	viper.AutomaticEnv()
	log.Init(viper.GetString("logLevel"), "stdout", nil)
	// read the configuration
	host := viper.GetString("host")
	port := viper.GetInt("port")
	clientOrigin := viper.GetString("clientOrigin")
	webhookSecret := viper.GetString("stripeWebhookSecret")
	// create the Stripe client
	stripeClient, err := stripe.NewClient(&stripe.Config{
		APIKey:        viper.GetString("stripeSecretKey"),
		WebhookSecret: webhookSecret,
		APIURL:        viper.GetString("stripeApiUrl"),
	})
	if err != nil {
		log.Fatalf("could not create the Stripe client (is STRIPE_SECRET_KEY set?): %v", err)
	}
	// create the checkout orchestrator
	orchestrator := checkout.New(stripeClient, &checkout.Config{
		ClientOrigin:       clientOrigin,
		SavedMethodReuse:   viper.GetBool("savedMethodReuse"),
		InvoiceMetadata:    viper.GetBool("invoiceMetadata"),
		InvoiceMetadataKey: viper.GetString("invoiceMetadataKey"),
		AllowCardFallback:  viper.GetBool("cardFallback"),
		Currency:           viper.GetString("currency"),
		ProductName:        viper.GetString("productName"),
	})
	defer orchestrator.Close()
	if clientOrigin == "" {
		log.Warn("no client origin configured, redirect URLs will be relative")
	}
	var origins []string
	if clientOrigin != "" && !viper.GetBool("corsAllowAll") {
		origins = []string{orchestrator.Config().ClientOrigin}
	}
	// create the local API server
	api.New(&api.Config{
		Host:           host,
		Port:           port,
		Checkout:       orchestrator,
		AllowedOrigins: origins,
		Webhooks:       webhookSecret != "",
	}).Start()
	// wait forever, as the server is running in a goroutine
	log.Infow("server started", "host", host, "port", port,
		"savedMethodReuse", orchestrator.Config().SavedMethodReuse, "webhooks", webhookSecret != "")
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
