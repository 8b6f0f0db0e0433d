package main

import (
	"context"

	"github.com/spf13/cobra"
)

type appKey struct{}

func newRootCmd(version string) *cobra.Command {
	var cfgFile string
	v := newViper()

	root := &cobra.Command{
		Use:           "mailkit",
		Short:         "Render and preview mail template directories",
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, cfgFile)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := a.load(cmd.Context()); err != nil {
				_ = a.Close()
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, a))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
				return a.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: ./mailkit.yaml)")
	flags.StringP("templates", "t", "templates", "directory holding one sub-directory per template")
	flags.StringP("engine", "e", engineGoTemplate, "rendering engine: gotmpl, markdown or fasttmpl")
	flags.String("layout", "", "HTML layout wrapping markdown bodies")
	flags.String("cid-domain", "localhost", "domain part of generated content ids")
	flags.String("log-level", "info", "log level")
	flags.String("fix-newlines", fixNewlinesAuto, "normalize body newlines to CRLF: auto, true or false")
	flags.String("sentry-dsn", "", "report errors to Sentry")

	for key, flag := range map[string]string{
		"templates":      "templates",
		"engine":         "engine",
		"layout":         "layout",
		"cid_domain":     "cid-domain",
		"log.level":      "log-level",
		"log.sentry_dsn": "sentry-dsn",
		"fix_newlines":   "fix-newlines",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(newListCmd(), newRenderCmd(), newServeCmd(v))
	return root
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}
