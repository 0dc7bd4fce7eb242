package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pplp-network/settlement-api/internal/config"
	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/models"
	"github.com/pplp-network/settlement-api/pkg/chain"
)

type multisigFixture struct {
	env     *testEnv
	svc     MultisigService
	events  *recordingPublisher
	request dto.MintRequestResponse
	payload chain.SignPayload
	will    testSigner
	wisdom  testSigner
	love    testSigner
}

func newMultisigFixture(t *testing.T) *multisigFixture {
	t.Helper()

	env := newTestEnv(t)
	events := &recordingPublisher{}

	will := newTestSigner(t, config.GroupWill)
	wisdom := newTestSigner(t, config.GroupWisdom)
	love := newTestSigner(t, config.GroupLove)
	signers := newTestSignerSet(t, will, wisdom, love)

	minter := newMintService(env, &stubNonce{nonce: 5}, nil)
	env.seedProfile(t, "user-1", testWallet)
	env.seedAction(t, "user-1", models.ActionKindPost, 10)

	request, err := minter.CreateForOwner(context.Background(), "user-1")
	require.NoError(t, err)

	return &multisigFixture{
		env:     env,
		svc:     NewMultisigService(env.requests, signers, events, env.validate, env.logger),
		events:  events,
		request: request,
		payload: chain.SignPayload{
			Recipient:    request.Recipient,
			ActionHash:   request.ActionHash,
			AmountBase:   request.AmountBase,
			EvidenceHash: request.EvidenceHash,
			Nonce:        request.Nonce,
		},
		will:   will,
		wisdom: wisdom,
		love:   love,
	}
}

func (f *multisigFixture) signAs(t *testing.T, signer testSigner) (dto.MintRequestResponse, error) {
	t.Helper()
	return f.svc.Sign(context.Background(), f.request.ID, dto.SignRequest{
		SignerAddress: signer.address,
		Signature:     signer.sign(t, f.payload),
	})
}

func TestSignProgressesThroughQuorum(t *testing.T) {
	f := newMultisigFixture(t)

	resp, err := f.signAs(t, f.wisdom)
	require.NoError(t, err)
	require.Equal(t, models.MintRequestStatusSigning, resp.Status)
	require.Equal(t, []string{config.GroupWisdom}, resp.SignedGroups)

	resp, err = f.signAs(t, f.love)
	require.NoError(t, err)
	require.Equal(t, models.MintRequestStatusSigning, resp.Status)

	resp, err = f.signAs(t, f.will)
	require.NoError(t, err)
	require.Equal(t, models.MintRequestStatusSigned, resp.Status)
	require.ElementsMatch(t,
		[]string{config.GroupWill, config.GroupWisdom, config.GroupLove},
		resp.SignedGroups)

	require.Equal(t, []string{EventRequestSigned}, f.events.typesSeen())
}

func TestSignDuplicateGroupRejected(t *testing.T) {
	f := newMultisigFixture(t)

	_, err := f.signAs(t, f.will)
	require.NoError(t, err)

	// An identical resubmission and one with different signature bytes
	// both fail the same way.
	_, err = f.signAs(t, f.will)
	require.ErrorIs(t, err, ErrGroupSigned)

	_, err = f.svc.Sign(context.Background(), f.request.ID, dto.SignRequest{
		SignerAddress: f.will.address,
		Signature:     f.wisdom.sign(t, f.payload),
	})
	require.ErrorIs(t, err, ErrGroupSigned)
}

func TestSignUnknownSigner(t *testing.T) {
	f := newMultisigFixture(t)
	outsider := newTestSigner(t, config.GroupWill)

	_, err := f.svc.Sign(context.Background(), f.request.ID, dto.SignRequest{
		SignerAddress: outsider.address,
		Signature:     outsider.sign(t, f.payload),
	})
	require.ErrorIs(t, err, ErrUnknownSigner)
}

func TestSignBadSignature(t *testing.T) {
	f := newMultisigFixture(t)

	// Signature produced by a different key than the claimed address.
	_, err := f.svc.Sign(context.Background(), f.request.ID, dto.SignRequest{
		SignerAddress: f.will.address,
		Signature:     f.wisdom.sign(t, f.payload),
	})
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestSignTamperedPayload(t *testing.T) {
	f := newMultisigFixture(t)

	tampered := f.payload
	tampered.AmountBase = "999000000000000000000"

	_, err := f.svc.Sign(context.Background(), f.request.ID, dto.SignRequest{
		SignerAddress: f.will.address,
		Signature:     f.will.sign(t, tampered),
	})
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestSignClosedRequest(t *testing.T) {
	f := newMultisigFixture(t)

	_, err := f.env.requests.Transition(context.Background(), f.request.ID, models.MintRequestStatusRejected)
	require.NoError(t, err)

	_, err = f.signAs(t, f.will)
	require.ErrorIs(t, err, ErrRequestClosed)
}

func TestSignUnknownRequest(t *testing.T) {
	f := newMultisigFixture(t)

	_, err := f.svc.Sign(context.Background(), 404, dto.SignRequest{
		SignerAddress: f.will.address,
		Signature:     f.will.sign(t, f.payload),
	})
	require.ErrorIs(t, err, ErrRequestNotFound)
}

func TestSignValidatesAddressFormat(t *testing.T) {
	f := newMultisigFixture(t)

	_, err := f.svc.Sign(context.Background(), f.request.ID, dto.SignRequest{
		SignerAddress: "not-an-address",
		Signature:     "0x00",
	})
	require.Error(t, err)
}

func TestSignCaseInsensitiveAddress(t *testing.T) {
	f := newMultisigFixture(t)

	resp, err := f.svc.Sign(context.Background(), f.request.ID, dto.SignRequest{
		SignerAddress: strings.ToLower(f.will.address),
		Signature:     f.will.sign(t, f.payload),
	})
	require.NoError(t, err)
	require.Equal(t, []string{config.GroupWill}, resp.SignedGroups)
}
