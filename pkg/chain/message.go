package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrSignatureMismatch indicates the signature does not recover to the
// claimed signer address.
var ErrSignatureMismatch = errors.New("signature does not match signer address")

// SignPayload is the structured message a governance signer approves.
// Every field is part of the digest, so a signature cannot be replayed
// against a different recipient, amount, or nonce.
type SignPayload struct {
	Recipient    string
	ActionHash   string
	AmountBase   string
	EvidenceHash string
	Nonce        uint64
}

// Message returns the canonical string form of the payload. Wallets sign
// this via personal_sign, which applies the EIP-191 text prefix.
func (p SignPayload) Message() string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", p.Recipient, p.ActionHash, p.AmountBase, p.EvidenceHash, p.Nonce)
}

// VerifySignature recovers the public key from an EIP-191 personal-sign
// signature over the payload message and checks it against the claimed
// signer address. Verification is purely local; no RPC round trip.
func VerifySignature(payload SignPayload, signerAddress, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("malformed signature: expected %d bytes, got %d", crypto.SignatureLength, len(sig))
	}

	// Wallets encode the recovery id as 27/28 per the Ethereum RPC
	// convention; go-ethereum expects 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[crypto.RecoveryIDOffset] -= 27
	}

	digest := TextDigest(payload.Message())

	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return fmt.Errorf("signature recovery failed: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pub)
	if recovered != common.HexToAddress(signerAddress) {
		return ErrSignatureMismatch
	}

	return nil
}

// TextDigest computes the EIP-191 personal-sign digest of a message.
func TextDigest(message string) []byte {
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	return crypto.Keccak256([]byte(prefixed))
}
