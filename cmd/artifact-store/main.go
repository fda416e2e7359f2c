package main

import (
	"net/http"
	"os"

	"github.com/apicheck/reportcsv/artifactstore"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	root string
	addr string
)

var rootCmd = &cobra.Command{
	Use:   "artifact-store",
	Short: "Serve CSV artifacts uploaded by reportcsv's local storage provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Infof("artifact-store: serving %s on %s", root, addr)
		return http.ListenAndServe(addr, artifactstore.NewRouter(root))
	},
}

func main() {
	rootCmd.Flags().StringVar(&root, "root", "/storage", "directory holding the artifacts")
	rootCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
