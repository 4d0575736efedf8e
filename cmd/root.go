// Package cmd wires the srclight CLI commands.
package cmd

import (
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/srclight/cli/internal/cascade"
	"github.com/srclight/cli/internal/config"
	"github.com/srclight/cli/internal/gql"
	"github.com/srclight/cli/pkg/auth"
)

var metadata = struct {
	Version string
}{Version: "dev"}

// SetVersion records the build-time version for the version and upgrade
// commands.
func SetVersion(v string) {
	if v != "" {
		metadata.Version = v
		rootCmd.Version = v
	}
}

var rootCmd = &cobra.Command{
	Use:           "srclight",
	Short:         "Code search and intelligence from your terminal",
	Long:          "srclight manages your Srclight instance settings, language extensions, and authentication.",
	Version:       metadata.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Root returns the assembled command tree for main.
func Root() *cobra.Command {
	return rootCmd
}

func addOutputFlag(flags *pflag.FlagSet) {
	flags.StringP("output", "o", "", "Output format (json)")
}

// Shared service construction. The cascade store is process-wide so every
// command and subscription observes the same fetch.
var (
	endpointsOnce sync.Once
	endpointsVal  *config.Endpoints

	storeOnce sync.Once
	storeVal  *cascade.Store
)

func endpoints() *config.Endpoints {
	endpointsOnce.Do(func() {
		endpointsVal = config.FromEnvironment()
	})
	return endpointsVal
}

func gqlClient() *gql.Client {
	return gql.NewClient(gql.WithTokenProvider(auth.NewTokenStore(endpoints().Current())))
}

func cascadeStore() *cascade.Store {
	storeOnce.Do(func() {
		storeVal = cascade.NewStore(cascade.NewFetcher(gqlClient()), endpoints())
	})
	return storeVal
}

func cascadeEditor() *cascade.Editor {
	return cascade.NewEditor(cascadeStore(), gqlClient(), endpoints())
}
