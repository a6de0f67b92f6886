// Package decode is offline console for captured probe payloads.
package decode

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/yc01-bridge/cmd/yc01-bridge/subcmd"
	"github.com/temoto/yc01-bridge/hardware/yc01"
	"github.com/temoto/yc01-bridge/helpers/cli"
	"github.com/temoto/yc01-bridge/internal/state"
)

const modName = "decode"

const usage = `syntax:
- XX...         decode raw characteristic value in hex, print frame and reading
- encode XX...  encode plain frame in hex, print raw value
hex may contain spaces and colons`

var Mod = subcmd.Mod{Name: modName, Short: "decode captured payloads from stdin", WithoutConfig: true, Main: Main}

func Main(ctx context.Context, config *state.Config) error {
	cli.MainLoop(modName, newExecutor(ctx), cli.Suggest([]prompt.Suggest{
		{Text: "encode", Description: "plain frame to raw value"},
		{Text: "help"},
	}), nil)
	return nil
}

func newExecutor(ctx context.Context) func(string) {
	g := state.GetGlobal(ctx)
	return func(line string) {
		out, err := Exec(line)
		if err != nil {
			g.Log.Error(err)
			return
		}
		fmt.Println(out)
	}
}

var hexClean = strings.NewReplacer(" ", "", ":", "", "\t", "")

// Exec runs one console line, returns printable result.
func Exec(line string) (string, error) {
	line = strings.TrimSpace(line)
	switch {
	case line == "help" || line == "?":
		return usage, nil
	case strings.HasPrefix(line, "encode"):
		frame, err := hex.DecodeString(hexClean.Replace(strings.TrimPrefix(line, "encode")))
		if err != nil {
			return "", errors.Annotate(err, "hex")
		}
		raw, err := yc01.Encode(frame)
		if err != nil {
			return "", errors.Trace(err)
		}
		return hex.EncodeToString(raw), nil
	}

	raw, err := hex.DecodeString(hexClean.Replace(line))
	if err != nil {
		return "", errors.Annotate(err, "hex")
	}
	frame, err := yc01.Decode(raw)
	if err != nil {
		return "", errors.Trace(err)
	}
	if err = yc01.Validate(frame); err != nil {
		return "", errors.Annotatef(err, "frame=%x", frame)
	}
	r, err := yc01.Parse(frame)
	if err != nil {
		return "", errors.Annotatef(err, "frame=%x", frame)
	}
	b, err := json.Marshal(&r)
	if err != nil {
		return "", errors.Trace(err)
	}
	return fmt.Sprintf("frame=%x\n%s\n%s", frame, r.String(), b), nil
}
