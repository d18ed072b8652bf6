package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Inyectadas en build via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// .env es opcional: en containers la config viaja por env directo.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:   "janus",
		Short: "Authorization server OAuth2/OIDC",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("JANUS_CONFIG", "config.yaml"), "ruta al config YAML (env JANUS_CONFIG)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Imprime la versión",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("janus %s (%s)\n", version, commit)
		},
	}

	root.AddCommand(serveCmd, versionCmd, newMigrateCmd(&configPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
