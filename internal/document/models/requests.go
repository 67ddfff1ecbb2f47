package models

import (
	"strings"

	"docregistry/pkg/platform/validation"
)

// RequestDocumentInput is a citizen submission assembled from a multipart form.
type RequestDocumentInput struct {
	Title    string `validate:"required,notblank,max=256"`
	Type     string `validate:"required,notblank,max=64"`
	File     []byte
	Filename string
}

func (r *RequestDocumentInput) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Type = strings.TrimSpace(r.Type)
	r.Filename = strings.TrimSpace(r.Filename)
}

func (r *RequestDocumentInput) Validate() error {
	return validation.Validate(r)
}

// IssueRequest creates a verified document on behalf of an institution.
type IssueRequest struct {
	Title           string `json:"title" validate:"required,notblank,max=256"`
	Type            string `json:"type" validate:"required,notblank,max=64"`
	CitizenName     string `json:"citizenName" validate:"max=128"`
	OwnerID         string `json:"ownerId" validate:"omitempty,uuid"`
	TxHash          string `json:"txHash" validate:"max=256"`
	IpfsCID         string `json:"ipfsCid" validate:"max=256"`
	ContractAddress string `json:"contractAddress" validate:"max=256"`
	BlockchainID    *int64 `json:"blockchainId" validate:"omitempty,min=0"`
}

// Normalize trims the descriptive fields. Chain and content references are stored as sent.
func (r *IssueRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Type = strings.TrimSpace(r.Type)
	r.CitizenName = strings.TrimSpace(r.CitizenName)
	r.OwnerID = strings.TrimSpace(r.OwnerID)
	r.ContractAddress = strings.TrimSpace(r.ContractAddress)
}

func (r *IssueRequest) Validate() error {
	return validation.Validate(r)
}

// UpdateStatusRequest carries the raw status; the service parses it.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (r *UpdateStatusRequest) Normalize() {
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func (r *UpdateStatusRequest) Validate() error {
	return validation.Validate(r)
}
