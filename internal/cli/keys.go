package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/signedchess/internal/signature"
)

func newKeygenCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair and store it under --key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := signature.GenerateKeyPair()
			if err != nil {
				return err
			}

			if err := cfg.SaveKey(cfg.KeyName, kp, force); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(KeyInfo{Name: cfg.KeyName, Path: cfg.KeyPath(cfg.KeyName), PublicKey: kp.PublicKey})
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing key")

	return cmd
}
