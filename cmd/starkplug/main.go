package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cairoforge/starkplug/core/address"
	"github.com/cairoforge/starkplug/core/crypto"
	"github.com/cairoforge/starkplug/provider"
	"github.com/cairoforge/starkplug/utils"
)

var Version string

const greeting = `
      _             _         _
  ___| |_ __ _ _ __| | ___ __| |_   _  __ _
 / __| __/ _` + "`" + ` | '__| |/ / '_ \| | | |/ _` + "`" + ` |
 \__ \ || (_| | |  |   <| |_) | | |_| | (_| |
 |___/\__\__,_|_|  |_|\_\ .__/|_|\__,_|\__, |
                        |_|            |___/

Starkplug talks to a Starknet sequencer gateway from the command line.

`

const (
	configF       = "config"
	verbosityF    = "verbosity"
	colourF       = "colour"
	networkF      = "network"
	feederURLF    = "feeder-url"
	gatewayURLF   = "gateway-url"
	devnetURLF    = "devnet-url"
	pollIntervalF = "poll-interval"
	tokenF        = "token"

	defaultConfig       = ""
	defaultColour       = true
	defaultFeederURL    = ""
	defaultGatewayURL   = ""
	defaultDevnetURL    = ""
	defaultPollInterval = 2 * time.Second
	defaultToken        = "eth"

	configFlagUsage = "The yaml configuration file."
	verbosityUsage  = "Verbosity of the logs. Options: debug, info, warn, error."
	colourUsage     = "Use colour in the logs."
	networkUsage    = "The network to operate on. Options: mainnet, testnet, local."
	feederURLUsage  = "Override the network's feeder gateway URL."
	gatewayURLUsage = "Override the network's gateway URL."
	devnetURLUsage  = "Base URL of a local starknet-devnet process."
	pollUsage       = "Interval between transaction status polls."
	tokenUsage      = "Name of the token to query."
)

func main() {
	if err := NewCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func NewCmd() *cobra.Command {
	var cfgFile string
	logLevel := utils.INFO
	network := utils.Testnet

	rootCmd := &cobra.Command{
		Use:           "starkplug [command]",
		Short:         "Starknet gateway client in Go.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, configF, defaultConfig, configFlagUsage)
	rootCmd.PersistentFlags().Var(&logLevel, verbosityF, verbosityUsage)
	rootCmd.PersistentFlags().Bool(colourF, defaultColour, colourUsage)
	rootCmd.PersistentFlags().Var(&network, networkF, networkUsage)
	rootCmd.PersistentFlags().String(feederURLF, defaultFeederURL, feederURLUsage)
	rootCmd.PersistentFlags().String(gatewayURLF, defaultGatewayURL, gatewayURLUsage)
	rootCmd.PersistentFlags().String(devnetURLF, defaultDevnetURL, devnetURLUsage)
	rootCmd.PersistentFlags().Duration(pollIntervalF, defaultPollInterval, pollUsage)

	rootCmd.RunE = func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), greeting)
		if err == nil {
			err = cmd.Help()
		}
		return err
	}

	rootCmd.AddCommand(
		checksumCmd(),
		selectorCmd(),
		blockCmd(&cfgFile, &logLevel),
		balanceCmd(&cfgFile, &logLevel),
		nonceCmd(&cfgFile, &logLevel),
	)
	return rootCmd
}

// loadConfig layers the yaml file under the flag values and unmarshals the
// result, so flags win on conflict.
func loadConfig(cmd *cobra.Command, cfgFile string) (*provider.Config, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	cfg := new(provider.Config)
	if err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newProvider(cmd *cobra.Command, cfgFile string, logLevel utils.LogLevel) (*provider.Provider, error) {
	cfg, err := loadConfig(cmd, cfgFile)
	if err != nil {
		return nil, err
	}

	colour, err := cmd.Flags().GetBool(colourF)
	if err != nil {
		return nil, err
	}
	log, err := utils.NewZapLogger(logLevel, colour)
	if err != nil {
		return nil, err
	}

	p, err := provider.New(*cfg, log)
	if err != nil {
		return nil, err
	}
	if err = p.Connect(cmd.Context()); err != nil {
		return nil, err
	}
	return p, nil
}

func checksumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checksum <address>...",
		Short: "Print the checksummed form of each address.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				checksummed, err := address.ToChecksumAddress(arg)
				if err != nil {
					return err
				}
				if _, err = fmt.Fprintln(cmd.OutOrStdout(), checksummed); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func selectorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selector <name>...",
		Short: "Print the entry point selector for each method name.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				selector, err := crypto.SelectorFromName(arg)
				if err != nil {
					return err
				}
				if _, err = fmt.Fprintln(cmd.OutOrStdout(), selector.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func blockCmd(cfgFile *string, logLevel *utils.LogLevel) *cobra.Command {
	return &cobra.Command{
		Use:   "block [id]",
		Short: "Print a block header. Accepts a height, hash, negative offset, or \"latest\"/\"pending\".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newProvider(cmd, *cfgFile, *logLevel)
			if err != nil {
				return err
			}
			defer p.Disconnect()

			blockID := "latest"
			if len(args) == 1 {
				blockID = args[0]
			}

			block, err := p.BlockByID(cmd.Context(), blockID)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(block, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return err
		},
	}
}

func balanceCmd(cfgFile *string, logLevel *utils.LogLevel) *cobra.Command {
	balanceCmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Print an account's token balance.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newProvider(cmd, *cfgFile, *logLevel)
			if err != nil {
				return err
			}
			defer p.Disconnect()

			token, err := cmd.Flags().GetString(tokenF)
			if err != nil {
				return err
			}

			balance, err := p.Balance(cmd.Context(), args[0], token)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), balance.String())
			return err
		},
	}
	balanceCmd.Flags().String(tokenF, defaultToken, tokenUsage)
	return balanceCmd
}

func nonceCmd(cfgFile *string, logLevel *utils.LogLevel) *cobra.Command {
	return &cobra.Command{
		Use:   "nonce <address>",
		Short: "Print an account's current nonce.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newProvider(cmd, *cfgFile, *logLevel)
			if err != nil {
				return err
			}
			defer p.Disconnect()

			nonce, err := p.Nonce(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), nonce.String())
			return err
		},
	}
}
