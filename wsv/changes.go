// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package wsv

// ChangeSet names the cached entities written by a session.
// Writes undone by a savepoint rollback stay listed.
type ChangeSet struct {
	Accounts map[string]struct{}
	Roles    map[string]struct{}
	Domains  map[string]struct{}
	Assets   map[string]struct{}
	Peers    bool
	Settings bool
	// Cleared is set when the whole state was wiped.
	Cleared bool
}

func touch(m *map[string]struct{}, id string) {
	if *m == nil {
		*m = make(map[string]struct{})
	}
	(*m)[id] = struct{}{}
}

func (cs *ChangeSet) account(id string) {
	if cs != nil {
		touch(&cs.Accounts, id)
	}
}

func (cs *ChangeSet) role(id string) {
	if cs != nil {
		touch(&cs.Roles, id)
	}
}

func (cs *ChangeSet) domain(id string) {
	if cs != nil {
		touch(&cs.Domains, id)
	}
}

func (cs *ChangeSet) asset(id string) {
	if cs != nil {
		touch(&cs.Assets, id)
	}
}

func (cs *ChangeSet) peers() {
	if cs != nil {
		cs.Peers = true
	}
}

func (cs *ChangeSet) settings() {
	if cs != nil {
		cs.Settings = true
	}
}

// Empty returns whether nothing was touched.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Accounts)+len(cs.Roles)+len(cs.Domains)+len(cs.Assets) == 0 &&
		!cs.Peers && !cs.Settings && !cs.Cleared
}
