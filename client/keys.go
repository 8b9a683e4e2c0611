package client

import (
	"context"

	"plotthread.org/client/keys"
)

// ImportKeys derives the configured number of public keys from passphrase,
// replacing any held keys. Passphrases weaker than the configured minimum
// score are refused.
func (c *Client) ImportKeys(ctx context.Context, passphrase string) ([]string, error) {
	if _, err := keys.CheckPassphrase(passphrase, c.cfg.GetMinPassphraseScore()); err != nil {
		return nil, err
	}
	pks, err := c.holder.Import(ctx, passphrase, c.cfg.GetImportKeyCount())
	if err != nil {
		return nil, err
	}
	c.log.Info("keys imported", "count", len(pks))
	return pks, nil
}

func (c *Client) DeleteKeys(ctx context.Context) error {
	return c.holder.Delete(ctx)
}

func (c *Client) SelectKey(ctx context.Context, pk string) error {
	return c.holder.Select(ctx, pk)
}

func (c *Client) PublicKeys() []string { return c.holder.PublicKeys() }

// SelectedKey returns the selected key and its derivation index, or ("", -1).
func (c *Client) SelectedKey() (string, int) { return c.holder.Selected() }
