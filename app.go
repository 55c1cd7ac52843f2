package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/aaronwds/docusign-jwt/internal/auth"
	"github.com/aaronwds/docusign-jwt/internal/config"
	"github.com/aaronwds/docusign-jwt/internal/esign"
	"github.com/aaronwds/docusign-jwt/internal/logging"
	"github.com/aaronwds/docusign-jwt/internal/server"
	"github.com/aaronwds/docusign-jwt/internal/signing"
)

const defaultVoidReason = "Voided by sender"

var (
	cfgPath     string
	openBrowser bool

	cfg       *config.Config
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:               "docusign-jwt",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Send DocuSign envelopes using JWT grant authentication",
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath, !cmd.Flags().Changed("config"))
		if err != nil {
			log.Printf("failed to load configuration: %v", err)
			return err
		}
		appLogger = logging.Init(cfg.LogLevel, cfg.Environment)
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the envelope described by a request plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		if p, _ := cmd.Flags().GetString("plan"); p != "" {
			cfg.PlanPath = p
		}
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}
		plan, err := config.LoadPlan(cfg.PlanPath)
		if err != nil {
			return err
		}
		if s, _ := cmd.Flags().GetString("subject"); s != "" {
			plan.Subject = s
		}

		authenticator, err := newAuthenticator()
		if err != nil {
			return err
		}

		appLogger.Info("sending envelope",
			slog.Int("documents", len(plan.Documents)),
			slog.Int("signers", len(plan.Signers)),
			slog.Int("cc", len(plan.CarbonCopies)))

		res, err := signing.Run(cmd.Context(), authenticator, cfg.Credentials(), plan.Envelope(), signing.WithBasePath(cfg.BasePath))
		if err != nil {
			return fmt.Errorf("failed to send envelope: %w", err)
		}
		if res.Consent != nil {
			return requestConsent(res.Consent.URL)
		}

		appLogger.Info("envelope sent", slog.String("envelope_id", res.EnvelopeID))
		fmt.Println(res.EnvelopeID)
		return nil
	},
}

var voidCmd = &cobra.Command{
	Use:   "void <envelope-id>",
	Short: "Void a sent envelope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}
		authenticator, err := newAuthenticator()
		if err != nil {
			return err
		}

		out, err := authenticator.Authenticate(cmd.Context(), cfg.Credentials())
		if err != nil {
			return fmt.Errorf("failed to retrieve token: %w", err)
		}
		if out.NeedsConsent() {
			return requestConsent(out.Consent.URL)
		}

		reason, _ := cmd.Flags().GetString("reason")
		client := esign.NewClient(cfg.BasePath, out.Session.Token, nil)
		if err := client.VoidEnvelope(cmd.Context(), out.Session.AccountID, args[0], reason); err != nil {
			return fmt.Errorf("failed to void envelope: %w", err)
		}
		appLogger.Info("envelope voided", slog.String("envelope_id", args[0]))
		return nil
	},
}

var consentCmd = &cobra.Command{
	Use:   "consent-url",
	Short: "Print the URL where the impersonated user grants consent",
	RunE: func(cmd *cobra.Command, args []string) error {
		consentURL, err := auth.ConsentURL(cfg.Credentials())
		if err != nil {
			return err
		}
		fmt.Println(consentURL)
		if openBrowser {
			return browser.OpenURL(consentURL)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the demo HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireCredentials(); err != nil {
			return err
		}
		authenticator, err := newAuthenticator()
		if err != nil {
			return err
		}
		return server.New(cfg, appLogger, authenticator).ListenAndServe(cmd.Context())
	},
}

var errConsentRequired = errors.New("consent has not been granted for this integration key; grant it and run again")

// requestConsent shows the consent URL, opening it when --open-browser is set.
func requestConsent(consentURL string) error {
	appLogger.Warn("consent has not been granted to use this account", slog.String("url", consentURL))
	fmt.Println(consentURL)
	if openBrowser {
		if err := browser.OpenURL(consentURL); err != nil {
			appLogger.Error("failed to open browser", slog.Any("error", err))
		}
	}
	return errConsentRequired
}

func newAuthenticator() (*auth.Authenticator, error) {
	validity, err := cfg.AssertionValidity()
	if err != nil {
		return nil, err
	}
	return auth.New(auth.WithTokenValidity(validity)), nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.json", "path to the JSON configuration file")
	rootCmd.PersistentFlags().BoolVar(&openBrowser, "open-browser", false, "open the consent URL in a browser when consent is required")

	sendCmd.Flags().String("plan", "", "request plan YAML (overrides request_plan)")
	sendCmd.Flags().String("subject", "", "email subject (overrides the plan)")
	voidCmd.Flags().String("reason", defaultVoidReason, "reason shown to recipients")

	rootCmd.AddCommand(sendCmd, voidCmd, consentCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
