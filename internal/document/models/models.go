package models

import (
	"time"

	id "docregistry/pkg/domain"
)

const dateLayout = "2006-01-02"

// Document is a registered document record. OwnerID is a weak reference: it may be
// nil, and when set it is never checked against the account store.
type Document struct {
	ID          id.DocumentID
	Title       string
	Type        string
	OwnerName   string
	OwnerID     *id.AccountID
	ContentID   string // IPFS content identifier
	TxRef       string // transaction reference supplied at issuance
	RegistryRef string // registry contract address
	RegistryID  *int64 // numeric id inside the registry contract
	Status      Status
	CreatedAt   time.Time
}

// DisplayHash is the first non-empty of content id, transaction reference and record id.
func (d *Document) DisplayHash() string {
	switch {
	case d.ContentID != "":
		return d.ContentID
	case d.TxRef != "":
		return d.TxRef
	default:
		return d.ID.String()
	}
}

// Date is the creation day in UTC.
func (d *Document) Date() string {
	return d.CreatedAt.UTC().Format(dateLayout)
}

func (d *Document) OwnedBy(accountID id.AccountID) bool {
	return d.OwnerID != nil && *d.OwnerID == accountID
}

func (d *Document) ListItem() ListItem {
	return ListItem{
		ID:     d.ID.String(),
		Title:  d.Title,
		Type:   d.Type,
		Hash:   d.DisplayHash(),
		Status: d.Status.String(),
		Date:   d.Date(),
		Owner:  d.OwnerName,
	}
}

func (d *Document) View() DocumentView {
	view := DocumentView{
		ID:              d.ID.String(),
		Title:           d.Title,
		Type:            d.Type,
		OwnerName:       d.OwnerName,
		IpfsCID:         d.ContentID,
		TxHash:          d.TxRef,
		ContractAddress: d.RegistryRef,
		BlockchainID:    d.RegistryID,
		Status:          d.Status.String(),
		CreatedAt:       d.CreatedAt.UTC(),
	}
	if d.OwnerID != nil {
		view.OwnerID = d.OwnerID.String()
	}
	return view
}
