// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// Commands is an ordered list of commands.
type Commands []Command

type envelope struct {
	Kind    Kind
	Payload rlp.RawValue
}

// EncodeRLP implements rlp.Encoder.
func (cs Commands) EncodeRLP(w io.Writer) error {
	envs := make([]envelope, 0, len(cs))
	for _, c := range cs {
		payload, err := rlp.EncodeToBytes(c)
		if err != nil {
			return err
		}
		envs = append(envs, envelope{c.Kind(), payload})
	}
	return rlp.Encode(w, envs)
}

// DecodeRLP implements rlp.Decoder.
func (cs *Commands) DecodeRLP(s *rlp.Stream) error {
	var envs []envelope
	if err := s.Decode(&envs); err != nil {
		return err
	}
	out := make(Commands, 0, len(envs))
	for i, env := range envs {
		ptr, get := newCommand(env.Kind)
		if ptr == nil {
			return fmt.Errorf("command %d: unknown kind %d", i, env.Kind)
		}
		if err := rlp.DecodeBytes(env.Payload, ptr); err != nil {
			return fmt.Errorf("command %d (%v): %w", i, env.Kind, err)
		}
		out = append(out, get())
	}
	*cs = out
	return nil
}
