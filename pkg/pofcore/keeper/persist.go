// Copyright 2025 Certen Protocol
//
// Persisted key layout, following the ledger store's big-endian
// height-suffixed key convention:
//   state:{shard_id}                 -> latest WalletState
//   pending:{shard_id}:{height}       -> WalletState at height (history)
//   note:{shard_id}:{commitment}     -> marker for a known note commitment

package keeper

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

type wireState struct {
	Height         uint64 `json:"height"`
	Anchor         string `json:"anchor"`
	NotesRoot      string `json:"notes_root"`
	NullifiersRoot string `json:"nullifiers_root"`
	Version        uint64 `json:"version"`
}

func stateKey(shardID string) []byte {
	return []byte("state:" + shardID)
}

func pendingKey(shardID string, height uint64) []byte {
	buf := make([]byte, len("pending:")+len(shardID)+1+8)
	n := copy(buf, "pending:"+shardID+":")
	binary.BigEndian.PutUint64(buf[n:], height)
	return buf
}

func noteKey(shardID, noteCommitment string) []byte {
	return []byte("note:" + shardID + ":" + noteCommitment)
}

func (k *Keeper) persist(s WalletState) error {
	w := wireState{
		Height:         s.Height,
		Anchor:         s.Anchor.String(),
		NotesRoot:      s.NotesRoot.String(),
		NullifiersRoot: s.NullifiersRoot.String(),
		Version:        s.Version,
	}
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("keeper: marshal state: %w", err)
	}

	if err := k.kv.Set(stateKey(k.shardID), data); err != nil {
		return fmt.Errorf("keeper: persist latest state: %w", err)
	}
	if err := k.kv.Set(pendingKey(k.shardID, s.Height), data); err != nil {
		return fmt.Errorf("keeper: persist state history: %w", err)
	}
	return nil
}

// LoadState reads the latest persisted WalletState for shardID, or
// Genesis() if none has been persisted yet.
func LoadState(shardID string, kv KV) (WalletState, error) {
	data, err := kv.Get(stateKey(shardID))
	if err != nil {
		return WalletState{}, fmt.Errorf("keeper: load state: %w", err)
	}
	if data == nil {
		return Genesis(), nil
	}

	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return WalletState{}, fmt.Errorf("keeper: decode state: %w", err)
	}

	var s WalletState
	s.Height = w.Height
	s.Version = w.Version
	if _, err := s.Anchor.SetString(w.Anchor); err != nil {
		return WalletState{}, fmt.Errorf("keeper: decode anchor: %w", err)
	}
	if _, err := s.NotesRoot.SetString(w.NotesRoot); err != nil {
		return WalletState{}, fmt.Errorf("keeper: decode notes root: %w", err)
	}
	if _, err := s.NullifiersRoot.SetString(w.NullifiersRoot); err != nil {
		return WalletState{}, fmt.Errorf("keeper: decode nullifiers root: %w", err)
	}
	return s, nil
}
