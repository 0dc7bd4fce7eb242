package dto

// UnmatchedTransfer is an on-chain treasury transfer with no ledger row.
// UserID is set only when the destination wallet maps exactly to a known
// recipient profile.
type UnmatchedTransfer struct {
	TxHash    string `json:"tx_hash"`
	Recipient string `json:"recipient"`
	ValueBase string `json:"value_base"`
	UserID    string `json:"user_id,omitempty"`
	Mappable  bool   `json:"mappable"`
}

// ScanResponse summarises one treasury reconciliation scan.
type ScanResponse struct {
	OnchainTransfers  int                 `json:"onchain_transfers"`
	OnchainTotalBase  string              `json:"onchain_total_base"`
	RecordedTransfers int                 `json:"recorded_transfers"`
	RecordedTotalBase string              `json:"recorded_total_base"`
	Missing           []UnmatchedTransfer `json:"missing"`
	UnmappableCount   int                 `json:"unmappable_count"`
}

// BackfillRequest names the unmatched transfers an admin approved for
// ledger insertion.
type BackfillRequest struct {
	TxHashes []string `json:"tx_hashes" validate:"required,min=1,dive,required"`
}

// BackfillResponse summarises one backfill run.
type BackfillResponse struct {
	Inserted        int      `json:"inserted"`
	SkippedExisting int      `json:"skipped_existing"`
	SkippedUnmapped int      `json:"skipped_unmapped"`
	Errors          []string `json:"errors,omitempty"`
}
