package models

import "time"

// ListItem is one row of GET /api/documents.
type ListItem struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Hash   string `json:"hash"`
	Status string `json:"status"`
	Date   string `json:"date"`
	Owner  string `json:"owner"`
}

type RequestResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Type    string `json:"type"`
	IpfsCID string `json:"ipfsCid"`
	Status  string `json:"status"`
	Date    string `json:"date"`
}

type IssueResult struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// DocumentView is the full record returned to institutions after a status change.
type DocumentView struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Type            string    `json:"type"`
	OwnerName       string    `json:"ownerName"`
	OwnerID         string    `json:"ownerId,omitempty"`
	IpfsCID         string    `json:"ipfsCid,omitempty"`
	TxHash          string    `json:"txHash,omitempty"`
	ContractAddress string    `json:"contractAddress,omitempty"`
	BlockchainID    *int64    `json:"blockchainId,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

type UpdateStatusResult struct {
	Message  string       `json:"message"`
	Document DocumentView `json:"doc"`
}
