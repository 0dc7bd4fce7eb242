package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pplp-network/settlement-api/internal/dto"
	"github.com/pplp-network/settlement-api/internal/handler"
	"github.com/pplp-network/settlement-api/internal/repository"
	"github.com/pplp-network/settlement-api/internal/service"
)

type mockMintRequestService struct {
	response dto.MintRequestResponse
	outcome  service.BatchOutcome
	err      error
}

func (m *mockMintRequestService) CreateForOwner(_ context.Context, _ string) (dto.MintRequestResponse, error) {
	return m.response, m.err
}

func (m *mockMintRequestService) CreateForAll(_ context.Context) (service.BatchOutcome, error) {
	return m.outcome, m.err
}

func (m *mockMintRequestService) Reject(_ context.Context, _ uint) (dto.MintRequestResponse, error) {
	if m.err != nil {
		return dto.MintRequestResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockMintRequestService) Get(_ context.Context, _ uint) (dto.MintRequestResponse, error) {
	if m.err != nil {
		return dto.MintRequestResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockMintRequestService) List(_ context.Context, _ repository.MintRequestFilter) ([]dto.MintRequestResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.MintRequestResponse{m.response}, nil
}

type mockMultisigService struct {
	lastPayload dto.SignRequest
	response    dto.MintRequestResponse
	err         error
}

func (m *mockMultisigService) Sign(_ context.Context, _ uint, payload dto.SignRequest) (dto.MintRequestResponse, error) {
	m.lastPayload = payload
	if m.err != nil {
		return dto.MintRequestResponse{}, m.err
	}
	return m.response, nil
}

func newMintRequestApp(requests service.MintRequestService, multisig service.MultisigService, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/mint-requests", func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		c.Locals("user_role", role)
		return c.Next()
	})

	passthrough := func(c *fiber.Ctx) error { return c.Next() }
	h := handler.NewMintRequestHandler(requests, multisig, validator.New(), zerolog.New(io.Discard))
	h.Register(group, passthrough, passthrough, passthrough)

	return app
}

func decodeResponse(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestMintRequestHandler_GetOwnRequest(t *testing.T) {
	requests := &mockMintRequestService{response: dto.MintRequestResponse{
		ID:      1,
		OwnerID: "user-1",
		Status:  "pending_sig",
	}}
	app := newMintRequestApp(requests, &mockMultisigService{}, "user")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/mint-requests/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                    `json:"success"`
		Data    dto.MintRequestResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, uint(1), response.Data.ID)
}

func TestMintRequestHandler_GetForeignRequestForbidden(t *testing.T) {
	requests := &mockMintRequestService{response: dto.MintRequestResponse{
		ID:      1,
		OwnerID: "someone-else",
	}}
	app := newMintRequestApp(requests, &mockMultisigService{}, "user")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/mint-requests/1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestMintRequestHandler_SignForwardsPayload(t *testing.T) {
	multisig := &mockMultisigService{response: dto.MintRequestResponse{ID: 1, Status: "signing"}}
	app := newMintRequestApp(&mockMintRequestService{}, multisig, "user")

	payload := dto.SignRequest{
		SignerAddress: "0x1111111111111111111111111111111111111111",
		Signature:     "0xdeadbeef",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/mint-requests/1/sign", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, payload.SignerAddress, multisig.lastPayload.SignerAddress)
}

func TestMintRequestHandler_SignErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "not found", err: service.ErrRequestNotFound, statusCode: fiber.StatusNotFound},
		{name: "unknown signer", err: service.ErrUnknownSigner, statusCode: fiber.StatusForbidden},
		{name: "duplicate group", err: service.ErrGroupSigned, statusCode: fiber.StatusConflict},
		{name: "bad signature", err: service.ErrBadSignature, statusCode: fiber.StatusUnprocessableEntity},
		{name: "closed", err: service.ErrRequestClosed, statusCode: fiber.StatusConflict},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			multisig := &mockMultisigService{err: tc.err}
			app := newMintRequestApp(&mockMintRequestService{}, multisig, "user")

			body, err := json.Marshal(dto.SignRequest{
				SignerAddress: "0x1111111111111111111111111111111111111111",
				Signature:     "0xdeadbeef",
			})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/mint-requests/1/sign", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestMintRequestHandler_CreateBatchSummary(t *testing.T) {
	requests := &mockMintRequestService{outcome: service.BatchOutcome{Created: 3, SkippedNoWallet: 1}}
	app := newMintRequestApp(requests, &mockMultisigService{}, "admin")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/mint-requests", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool               `json:"success"`
		Data    dto.ReclaimSummary `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, 3, response.Data.Created)
	require.Equal(t, 1, response.Data.SkippedNoWallet)
}

func TestMintRequestHandler_BadIDParam(t *testing.T) {
	app := newMintRequestApp(&mockMintRequestService{}, &mockMultisigService{}, "user")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/mint-requests/abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
