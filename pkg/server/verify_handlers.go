// Copyright 2025 Certen Protocol
//
// Proof-of-Funds Verification API Handlers
//
// Accepts a prover's ProofBundle, serves a cached verdict for a repeat
// submission of the same custodian/account/epoch triple, and otherwise
// runs the bundle through the groth16 verifier and caches the outcome.

package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/certen/independant-validator/pkg/pofcore/cache"
	"github.com/certen/independant-validator/pkg/pofcore/verifier"
)

// VerifyHandlers provides HTTP handlers for proof-bundle submission.
type VerifyHandlers struct {
	verifier    *verifier.Verifier
	cache       cache.Store
	cacheTTL    time.Duration
	validatorID string
	logger      *log.Logger
	now         func() time.Time
}

// NewVerifyHandlers creates new proof-bundle verification handlers.
func NewVerifyHandlers(v *verifier.Verifier, cacheStore cache.Store, cacheTTL time.Duration, validatorID string, logger *log.Logger) *VerifyHandlers {
	if logger == nil {
		logger = log.New(log.Writer(), "[VerifyAPI] ", log.LstdFlags)
	}
	return &VerifyHandlers{
		verifier:    v,
		cache:       cacheStore,
		cacheTTL:    cacheTTL,
		validatorID: validatorID,
		logger:      logger,
		now:         time.Now,
	}
}

type verifyBundleResponse struct {
	BundleID    string `json:"bundle_id"`
	Rail        string `json:"rail"`
	PolicyID    string `json:"policy_id"`
	ValidatorID string `json:"validator_id"`
	Cached      bool   `json:"cached"`
}

// HandleVerifyBundle handles POST /api/v1/verify
func (h *VerifyHandlers) HandleVerifyBundle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var bundle verifier.ProofBundle
	if err := json.NewDecoder(r.Body).Decode(&bundle); err != nil {
		writeJSONError(w, "invalid proof bundle: "+err.Error(), http.StatusBadRequest)
		return
	}

	key := cache.Key{
		CustodianID:   bundle.PublicInputs.CustodianID.String(),
		AccountIDHash: bundle.ScopeID,
		EpochID:       bundle.PublicInputs.EpochID.String(),
	}

	if entry, hit, err := h.cache.Get(key); err != nil {
		h.logger.Printf("attestation cache lookup failed for scope %s: %v", bundle.ScopeID, err)
	} else if hit {
		json.NewEncoder(w).Encode(verifyBundleResponse{
			BundleID:    entry.BundleID,
			Rail:        string(bundle.Rail),
			PolicyID:    entry.PolicyID,
			ValidatorID: h.validatorID,
			Cached:      true,
		})
		return
	}

	result, err := h.verifier.VerifyBundle(bundle)
	if err != nil {
		h.logger.Printf("bundle %s rejected: %v", bundle.BundleID, err)
		writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	cachedAt := h.now()
	if err := h.cache.Put(key, cache.Entry{
		PolicyID:  result.PolicyID,
		BundleID:  result.BundleID,
		CachedAt:  cachedAt,
		ExpiresAt: cachedAt.Add(h.cacheTTL),
	}); err != nil {
		h.logger.Printf("attestation cache write failed for scope %s: %v", bundle.ScopeID, err)
	}

	json.NewEncoder(w).Encode(verifyBundleResponse{
		BundleID:    result.BundleID,
		Rail:        string(result.Rail),
		PolicyID:    result.PolicyID,
		ValidatorID: h.validatorID,
		Cached:      false,
	})
}
