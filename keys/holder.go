package keys

import (
	"context"
	"encoding/json"
	"sync"

	"plotthread.org/client/model"
	"plotthread.org/client/storage"
)

// DefaultImportCount is how many public keys Import derives.
const DefaultImportCount = 10

const (
	holderBucket      = "keys"
	holderKeysKey     = "public_keys"
	holderSelectedKey = "selected"
)

var ErrUnknownKey = model.NewError(model.KindValidation, "KEY-006", "public key is not held")

// Holder keeps the imported public keys and the selected key.
//
// Only public keys are ever written to the KV. Signing always re-derives from the
// passphrase the user supplies at that moment.
type Holder struct {
	kv storage.KV

	mu        sync.RWMutex
	keys      []string
	selected  string
	selectedN int
}

func NewHolder(kv storage.KV) *Holder {
	return &Holder{kv: kv, selectedN: -1}
}

// Load restores the held keys from the KV. A KV without holder state is not an error.
func (h *Holder) Load(ctx context.Context) error {
	raw, err := h.kv.Get(ctx, holderBucket, holderKeysKey)
	if storage.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var keys []string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return model.WrapError(model.KindDecode, "KEY-020", "corrupt key holder state", err)
	}
	selected := ""
	if b, err := h.kv.Get(ctx, holderBucket, holderSelectedKey); err == nil {
		selected = string(b)
	} else if !storage.IsNotFound(err) {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = keys
	h.selected, h.selectedN = selected, indexOf(keys, selected)
	if h.selectedN < 0 && len(keys) > 0 {
		h.selected, h.selectedN = keys[0], 0
	}
	return nil
}

// Import derives count public keys from passphrase, replaces the held keys and
// selects the first one. count <= 0 means DefaultImportCount.
func (h *Holder) Import(ctx context.Context, passphrase string, count int) ([]string, error) {
	if count <= 0 {
		count = DefaultImportCount
	}
	keys, err := PublicKeys(passphrase, count)
	if err != nil {
		return nil, err
	}
	if err := h.store(ctx, keys, keys[0]); err != nil {
		return nil, err
	}
	return append([]string(nil), keys...), nil
}

// Delete forgets every held key.
func (h *Holder) Delete(ctx context.Context) error {
	return h.store(ctx, []string{}, "")
}

// Select makes pk the selected key.
func (h *Holder) Select(ctx context.Context, pk string) error {
	h.mu.RLock()
	keys := h.keys
	h.mu.RUnlock()
	if indexOf(keys, pk) < 0 {
		return ErrUnknownKey
	}
	return h.store(ctx, keys, pk)
}

// PublicKeys returns a copy of the held keys.
func (h *Holder) PublicKeys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.keys...)
}

// Selected returns the selected key and its derivation index, or ("", -1).
func (h *Holder) Selected() (string, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.selected, h.selectedN
}

func (h *Holder) store(ctx context.Context, keys []string, selected string) error {
	raw, err := json.Marshal(keys)
	if err != nil {
		return err
	}
	if err := h.kv.Put(ctx, holderBucket, holderKeysKey, raw); err != nil {
		return err
	}
	if selected == "" {
		err = h.kv.Delete(ctx, holderBucket, holderSelectedKey)
	} else {
		err = h.kv.Put(ctx, holderBucket, holderSelectedKey, []byte(selected))
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys = keys
	h.selected, h.selectedN = selected, indexOf(keys, selected)
	return nil
}

func indexOf(keys []string, pk string) int {
	if pk == "" {
		return -1
	}
	for i, k := range keys {
		if k == pk {
			return i
		}
	}
	return -1
}
