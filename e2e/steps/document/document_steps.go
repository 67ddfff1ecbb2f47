package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the scenario context the document steps use.
type TestContext interface {
	GET(path string, token string) error
	POST(path string, body any, token string) error
	PATCH(path string, body any, token string) error
	POSTMultipart(path string, fields map[string]string, filename string, content []byte, token string) error
	GetResponseField(path string) (any, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	TokenFor(name string) string
	LastDocumentID() string
	SetLastDocumentID(docID string)
	SetPinningContentID(cid string) error
	SetPinningFailing(failing bool) error
	PinningUploads() (int, error)
}

// RegisterSteps registers document lifecycle and verification steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &documentSteps{tc: tc}

	ctx.Step(`^the pinning service returns content id "([^"]*)"$`, steps.pinningReturns)
	ctx.Step(`^the pinning service is failing$`, steps.pinningFails)
	ctx.Step(`^the pinning service should have received (\d+) uploads?$`, steps.pinningUploads)

	ctx.Step(`^"([^"]*)" requests a document titled "([^"]*)" of type "([^"]*)" with file content "([^"]*)"$`, steps.requestDocument)
	ctx.Step(`^"([^"]*)" requests a document titled "([^"]*)" of type "([^"]*)" without a file$`, steps.requestWithoutFile)
	ctx.Step(`^"([^"]*)" issues a document titled "([^"]*)" of type "([^"]*)" for citizen "([^"]*)"$`, steps.issueDocument)
	ctx.Step(`^"([^"]*)" issues a document titled "([^"]*)" of type "([^"]*)" for citizen "([^"]*)" with transaction hash "([^"]*)"$`, steps.issueDocumentWithTx)
	ctx.Step(`^"([^"]*)" issues a document titled "([^"]*)" of type "([^"]*)" for citizen "([^"]*)" owned by account "([^"]*)"$`, steps.issueDocumentOwned)
	ctx.Step(`^"([^"]*)" lists documents$`, steps.listDocuments)
	ctx.Step(`^"([^"]*)" sets the status of the last document to "([^"]*)"$`, steps.setLastStatus)
	ctx.Step(`^"([^"]*)" sets the status of document "([^"]*)" to "([^"]*)"$`, steps.setStatus)

	ctx.Step(`^the list should contain (\d+) documents?$`, steps.listLength)
	ctx.Step(`^list item (\d+) field "([^"]*)" should equal "([^"]*)"$`, steps.listItemField)
	ctx.Step(`^every listed document should be owned by "([^"]*)"$`, steps.everyItemOwnedBy)

	ctx.Step(`^I verify "([^"]*)"$`, steps.verify)
	ctx.Step(`^I verify the last document id$`, steps.verifyLastID)
}

type documentSteps struct {
	tc TestContext
}

func (s *documentSteps) pinningReturns(ctx context.Context, cid string) error {
	return s.tc.SetPinningContentID(cid)
}

func (s *documentSteps) pinningFails(ctx context.Context) error {
	return s.tc.SetPinningFailing(true)
}

func (s *documentSteps) pinningUploads(ctx context.Context, expected int) error {
	n, err := s.tc.PinningUploads()
	if err != nil {
		return err
	}
	if n != expected {
		return fmt.Errorf("expected %d uploads but pinning service saw %d", expected, n)
	}
	return nil
}

func (s *documentSteps) requestDocument(ctx context.Context, who, title, docType, content string) error {
	err := s.tc.POSTMultipart("/api/documents/request",
		map[string]string{"title": title, "type": docType},
		"scan.pdf", []byte(content), s.tc.TokenFor(who))
	if err != nil {
		return err
	}
	s.rememberID()
	return nil
}

func (s *documentSteps) requestWithoutFile(ctx context.Context, who, title, docType string) error {
	return s.tc.POSTMultipart("/api/documents/request",
		map[string]string{"title": title, "type": docType},
		"", nil, s.tc.TokenFor(who))
}

func (s *documentSteps) issue(who string, body map[string]any) error {
	if err := s.tc.POST("/api/documents/issue", body, s.tc.TokenFor(who)); err != nil {
		return err
	}
	s.rememberID()
	return nil
}

func (s *documentSteps) issueDocument(ctx context.Context, who, title, docType, citizen string) error {
	return s.issue(who, map[string]any{"title": title, "type": docType, "citizenName": citizen})
}

func (s *documentSteps) issueDocumentWithTx(ctx context.Context, who, title, docType, citizen, txHash string) error {
	return s.issue(who, map[string]any{"title": title, "type": docType, "citizenName": citizen, "txHash": txHash})
}

func (s *documentSteps) issueDocumentOwned(ctx context.Context, who, title, docType, citizen, ownerID string) error {
	return s.issue(who, map[string]any{"title": title, "type": docType, "citizenName": citizen, "ownerId": ownerID})
}

// rememberID keeps the id of the last successfully created document.
func (s *documentSteps) rememberID() {
	if s.tc.GetLastResponseStatus() != 201 {
		return
	}
	if v, err := s.tc.GetResponseField("id"); err == nil {
		if docID, ok := v.(string); ok {
			s.tc.SetLastDocumentID(docID)
		}
	}
}

func (s *documentSteps) listDocuments(ctx context.Context, who string) error {
	return s.tc.GET("/api/documents", s.tc.TokenFor(who))
}

func (s *documentSteps) setLastStatus(ctx context.Context, who, status string) error {
	if s.tc.LastDocumentID() == "" {
		return fmt.Errorf("no document created in this scenario")
	}
	return s.setStatus(ctx, who, s.tc.LastDocumentID(), status)
}

func (s *documentSteps) setStatus(ctx context.Context, who, docID, status string) error {
	return s.tc.PATCH("/api/documents/"+docID+"/verify", map[string]string{"status": status}, s.tc.TokenFor(who))
}

func (s *documentSteps) items() ([]map[string]any, error) {
	var items []map[string]any
	if err := json.Unmarshal(s.tc.GetLastResponseBody(), &items); err != nil {
		return nil, fmt.Errorf("response is not a document list: %w: %s", err, s.tc.GetLastResponseBody())
	}
	return items, nil
}

func (s *documentSteps) listLength(ctx context.Context, expected int) error {
	items, err := s.items()
	if err != nil {
		return err
	}
	if len(items) != expected {
		return fmt.Errorf("expected %d documents but got %d: %s", expected, len(items), s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *documentSteps) listItemField(ctx context.Context, index int, field, expected string) error {
	items, err := s.items()
	if err != nil {
		return err
	}
	if index < 1 || index > len(items) {
		return fmt.Errorf("list has %d items, no item %d", len(items), index)
	}
	if got := fmt.Sprint(items[index-1][field]); got != expected {
		return fmt.Errorf("item %d field %s: expected %s but got %s", index, field, expected, got)
	}
	return nil
}

func (s *documentSteps) everyItemOwnedBy(ctx context.Context, owner string) error {
	items, err := s.items()
	if err != nil {
		return err
	}
	for i, item := range items {
		if item["owner"] != owner {
			return fmt.Errorf("item %d is owned by %v", i+1, item["owner"])
		}
	}
	return nil
}

func (s *documentSteps) verify(ctx context.Context, identifier string) error {
	return s.tc.GET("/api/verify/"+identifier, "")
}

func (s *documentSteps) verifyLastID(ctx context.Context) error {
	if s.tc.LastDocumentID() == "" {
		return fmt.Errorf("no document created in this scenario")
	}
	return s.verify(ctx, s.tc.LastDocumentID())
}
