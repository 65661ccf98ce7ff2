// Command p2pdemo exercises the whole stack end to end for manual
// verification: identity generation, a Noise handshake smoke test, and
// building a NIP-59 gift-wrap. It is not part of the module's public
// contract, mirroring the teacher's flat examples/ convention.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opd-ai/p2pcore/keystore"
	"github.com/opd-ai/p2pcore/noise"
	"github.com/opd-ai/p2pcore/nostr"
)

var passphrase string

var rootCmd = &cobra.Command{
	Use:   "p2pdemo",
	Short: "Exercises the Noise and Nostr stacks in this module",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&passphrase, "passphrase", "", "keystore passphrase (required by keygen)")
	rootCmd.AddCommand(keygenCmd, handshakeDemoCmd, sendCmd, listenCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

var keygenCmd = &cobra.Command{
	Use:   "keygen <dir>",
	Short: "Generate a Noise static key and a Nostr identity and store them encrypted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if passphrase == "" {
			return fmt.Errorf("--passphrase is required")
		}
		ks, err := keystore.Open(args[0], []byte(passphrase))
		if err != nil {
			return err
		}
		defer ks.Close()

		noisePriv, noisePub, err := noise.GenerateStaticKeyPair()
		if err != nil {
			return err
		}
		if err := ks.SaveNoiseStatic(noisePriv); err != nil {
			return err
		}

		nostrKP, err := nostr.GenerateKeyPair()
		if err != nil {
			return err
		}
		if err := ks.SaveNostrIdentity(nostrKP.Secret); err != nil {
			return err
		}

		fmt.Println("noise static public:", hex.EncodeToString(noisePub[:]))
		fmt.Println("nostr identity public:", hex.EncodeToString(nostrKP.Public[:]))
		return nil
	},
}

var handshakeDemoCmd = &cobra.Command{
	Use:   "handshake-demo",
	Short: "Run an in-process Noise XX handshake and exchange one encrypted message",
	RunE: func(cmd *cobra.Command, args []string) error {
		aPriv, _, err := noise.GenerateStaticKeyPair()
		if err != nil {
			return err
		}
		bPriv, _, err := noise.GenerateStaticKeyPair()
		if err != nil {
			return err
		}

		a, err := noise.NewSession(noise.Config{
			Role: noise.Initiator, Pattern: noise.PatternXX,
			LocalStaticPrivate: &aPriv, NonceMode: noise.NonceCounterSynchronous,
		})
		if err != nil {
			return err
		}
		b, err := noise.NewSession(noise.Config{
			Role: noise.Responder, Pattern: noise.PatternXX,
			LocalStaticPrivate: &bPriv, NonceMode: noise.NonceCounterSynchronous,
		})
		if err != nil {
			return err
		}

		msg1, err := a.WriteHandshakeMessage(nil)
		if err != nil {
			return err
		}
		if _, err := b.ReadHandshakeMessage(msg1); err != nil {
			return err
		}
		msg2, err := b.WriteHandshakeMessage(nil)
		if err != nil {
			return err
		}
		if _, err := a.ReadHandshakeMessage(msg2); err != nil {
			return err
		}
		msg3, err := a.WriteHandshakeMessage(nil)
		if err != nil {
			return err
		}
		if _, err := b.ReadHandshakeMessage(msg3); err != nil {
			return err
		}

		ct, err := a.Encrypt([]byte("hello over noise"))
		if err != nil {
			return err
		}
		pt, err := b.Decrypt(ct)
		if err != nil {
			return err
		}
		fmt.Println("handshake established, decrypted:", string(pt))
		a.Close()
		b.Close()
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <dir> <recipient-pubkey-hex> <message>",
	Short: "Gift-wrap and print a private message from the stored identity",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if passphrase == "" {
			return fmt.Errorf("--passphrase is required")
		}
		ks, err := keystore.Open(args[0], []byte(passphrase))
		if err != nil {
			return err
		}
		defer ks.Close()

		secret, _, err := ks.LoadNostrIdentity()
		if err != nil {
			return err
		}
		recipientBytes, err := hex.DecodeString(args[1])
		if err != nil || len(recipientBytes) != 32 {
			return fmt.Errorf("recipient pubkey must be 32-byte hex")
		}
		var recipient [32]byte
		copy(recipient[:], recipientBytes)

		wrap, err := nostr.CreatePrivateMessage(args[2], recipient, secret)
		if err != nil {
			return err
		}
		fmt.Println("gift-wrap event id:", wrap.ID)
		fmt.Println("gift-wrap outer pubkey:", wrap.PubKey)
		return nil
	},
}

var listenCmd = &cobra.Command{
	Use:   "listen <relay-url>",
	Short: "Name the relay package entry points for listening (does not connect)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("listen: connect %s with relay.NewMultiplexer and relay.Subscribe directly; this demo command only documents the entry point", args[0])
	},
}
