package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"

	"github.com/mr-tron/base58"
)

// Keypair is a freshly generated custodial wallet. The base58 public key is
// the deposit address handed to the user; the secret stays server-side.
type Keypair struct {
	Address string
	Secret  string
}

func Generate() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{
		Address: base58.Encode(pub),
		Secret:  base64.StdEncoding.EncodeToString(priv),
	}, nil
}
