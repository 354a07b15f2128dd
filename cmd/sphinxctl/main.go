// Command sphinxctl is a small demonstration front end for the
// sphinx packet format, generalizing the teacher's two-command
// onion/parse CLI (urfave/cli/v2) into build/unwrap/keygen/consensus
// subcommands driven by a node's TOML config instead of hard-coded
// demo keys.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/sphinxmix/core/command"
	"github.com/sphinxmix/core/config"
	"github.com/sphinxmix/core/consensus"
	"github.com/sphinxmix/core/group"
	"github.com/sphinxmix/core/params"
	"github.com/sphinxmix/core/replay"
	"github.com/sphinxmix/core/sphinx"
)

func main() {
	app := &cli.App{
		Name:  "sphinxctl",
		Usage: "build and unwrap Sphinx mix-network packets",
		Commands: []*cli.Command{
			keygenCmd,
			consensusAddCmd,
			buildCmd,
			unwrapCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var keygenCmd = &cli.Command{
	Name:  "keygen",
	Usage: "generate a fresh node id and Curve25519 keypair",
	Action: func(ctx *cli.Context) error {
		priv, err := group.GenerateSecret(nil)
		if err != nil {
			return err
		}
		pub, err := group.ScalarMult(nil, priv)
		if err != nil {
			return err
		}
		var id [command.NodeIDLength]byte
		if _, err := rand.Read(id[:]); err != nil {
			return err
		}
		id[0] = 0xFF

		fmt.Printf("id: %x\n", id)
		fmt.Printf("private_key: %x\n", priv)
		fmt.Printf("public_key: %x\n", pub)
		return nil
	},
}

var consensusAddCmd = &cli.Command{
	Name:      "consensus-add",
	Usage:     "register a node id/public key pair in a bolt consensus directory",
	ArgsUsage: "DB_PATH NODE_ID PUBLIC_KEY",
	Action: func(ctx *cli.Context) error {
		args := ctx.Args()
		if args.Len() != 3 {
			return fmt.Errorf("expected DB_PATH NODE_ID PUBLIC_KEY, got %d args", args.Len())
		}
		dir, err := consensus.OpenBoltDirectory(args.Get(0))
		if err != nil {
			return err
		}
		defer dir.Close()

		id, err := decodeNodeID(args.Get(1))
		if err != nil {
			return err
		}
		pub, err := decodePublicKey(args.Get(2))
		if err != nil {
			return err
		}
		return dir.Add(id, pub)
	},
}

var buildCmd = &cli.Command{
	Name:  "build",
	Usage: "construct a forward Sphinx packet along a route",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "consensus", Required: true, Usage: "bolt consensus directory path"},
		&cli.StringFlag{Name: "route", Required: true, Usage: "comma-separated hex node ids, first hop first"},
		&cli.StringFlag{Name: "dest", Required: true, Usage: "destination client id"},
		&cli.StringFlag{Name: "message", Required: true},
	},
	Action: func(ctx *cli.Context) error {
		dir, err := consensus.OpenBoltDirectory(ctx.String("consensus"))
		if err != nil {
			return err
		}
		defer dir.Close()

		route, err := resolveRoute(dir, ctx.String("route"))
		if err != nil {
			return err
		}

		p := params.DefaultParams
		pkt, firstHop, err := sphinx.NewForwardPacket(p, route, []byte(ctx.String("dest")), []byte(ctx.String("message")), nil)
		if err != nil {
			return err
		}

		fmt.Printf("first hop: %x\n", firstHop)
		fmt.Printf("packet: %x\n", pkt.Serialize(p))
		return nil
	},
}

var unwrapCmd = &cli.Command{
	Name:  "unwrap",
	Usage: "apply one node's private key to a serialized packet",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "config", Required: true, Usage: "node TOML config path"},
		&cli.StringFlag{Name: "packet", Required: true, Usage: "hex-encoded serialized packet"},
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := config.FromFile(ctx.String("config"))
		if err != nil {
			return err
		}
		id, err := cfg.NodeID()
		if err != nil {
			return err
		}
		priv, err := cfg.PrivateKey()
		if err != nil {
			return err
		}

		pub, err := group.ScalarMult(nil, priv)
		if err != nil {
			return err
		}

		var cache replay.Cache
		if cfg.ReplayCache.Path != "" {
			bolt, err := replay.OpenBoltCache(cfg.ReplayCache.Path, pub[:])
			if err != nil {
				return err
			}
			defer bolt.Close()
			cache = bolt
		} else {
			cache = replay.NewMemCache()
		}

		node, err := sphinx.NewNode(id, priv, cache)
		if err != nil {
			return err
		}

		p := &params.SphinxParams{R: cfg.Params.R, K: cfg.Params.K, M: cfg.Params.M}
		raw, err := hex.DecodeString(ctx.String("packet"))
		if err != nil {
			return fmt.Errorf("decoding packet: %w", err)
		}
		pkt, err := sphinx.Deserialize(raw, p)
		if err != nil {
			return err
		}

		outcome, err := node.Unwrap(pkt, p)
		if err != nil {
			return err
		}

		switch o := outcome.(type) {
		case sphinx.ForwardToMix:
			fmt.Printf("forward to %x: %x\n", o.NextID, o.Packet.Serialize(p))
		case sphinx.DeliverToDestination:
			fmt.Printf("deliver to %q: %s\n", o.ClientID, o.Body)
		case sphinx.DeliverToClient:
			fmt.Printf("deliver to client %x (message %x): %s\n", o.ClientID, o.MessageID, o.Body)
		}
		return nil
	},
}

func resolveRoute(dir *consensus.BoltDirectory, spec string) ([]sphinx.Hop, error) {
	ids := strings.Split(spec, ",")
	route := make([]sphinx.Hop, 0, len(ids))
	for _, s := range ids {
		id, err := decodeNodeID(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		pub, err := dir.Lookup(id)
		if err != nil {
			return nil, fmt.Errorf("looking up %x: %w", id, err)
		}
		route = append(route, sphinx.Hop{ID: id, PublicKey: pub})
	}
	return route, nil
}

func decodeNodeID(s string) ([command.NodeIDLength]byte, error) {
	var id [command.NodeIDLength]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(raw) != command.NodeIDLength {
		return id, fmt.Errorf("node id must be %d bytes, got %d", command.NodeIDLength, len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func decodePublicKey(s string) ([32]byte, error) {
	var pub [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return pub, err
	}
	if len(raw) != 32 {
		return pub, fmt.Errorf("public key must be 32 bytes, got %d", len(raw))
	}
	copy(pub[:], raw)
	return pub, nil
}
