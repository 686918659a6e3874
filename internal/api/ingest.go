package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// batchReceipt is the mode used by the append and upload helpers.
var batchReceipt = IngestOptions{Mode: ModeBatch, Receipt: true}

// Ingest posts data to path in the given format. The receipt is returned as
// reported; per-record errors inside it do not fail the call. An async
// ingest answered with an empty 202 yields a zero Receipt.
func (c *Client) Ingest(ctx context.Context, path string, format Format, data []byte, opts IngestOptions) (*Receipt, error) {
	req, err := c.builder.Ingest(path, format, data, opts)
	if err != nil {
		return nil, err
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	var receipt Receipt
	decoded, err := classifyJSON(req, resp, &receipt)
	if err != nil {
		return nil, err
	}
	if decoded {
		receipt.Raw = append(json.RawMessage(nil), resp.Body...)
	}
	return &receipt, nil
}

// Append stores a single value at dest.
func (c *Client) Append(ctx context.Context, dest string, v any) (*Receipt, error) {
	return c.AppendAll(ctx, dest, []any{v})
}

// AppendAll stores every record at dest in one JSON array payload.
func (c *Client) AppendAll(ctx context.Context, dest string, records []any) (*Receipt, error) {
	if len(records) == 0 {
		return nil, newClientError(ErrInvalidInput, "empty payload")
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, newClientError(ErrInvalidInput, "records are not JSON encodable", err.Error())
	}
	return c.Ingest(ctx, dest, FormatJSON, data, batchReceipt)
}

// AppendAllFromString stores already-encoded records at dest.
func (c *Client) AppendAllFromString(ctx context.Context, dest string, format Format, s string) (*Receipt, error) {
	return c.Ingest(ctx, dest, format, []byte(s), batchReceipt)
}

// AppendAllFromFile stores the contents of filename at dest.
func (c *Client) AppendAllFromFile(ctx context.Context, dest string, format Format, filename string) (*Receipt, error) {
	data, err := readPayload(filename)
	if err != nil {
		return nil, err
	}
	return c.Ingest(ctx, dest, format, data, batchReceipt)
}

// UploadString replaces the data at dest: it deletes dest, then ingests s.
// The replace is not atomic; a failure between the two calls leaves dest empty.
func (c *Client) UploadString(ctx context.Context, dest string, format Format, s string) (*Receipt, error) {
	return c.Upload(ctx, dest, format, []byte(s), batchReceipt)
}

// UploadFile is UploadString with the payload read from filename. The file is
// read before anything is deleted.
func (c *Client) UploadFile(ctx context.Context, dest string, format Format, filename string) (*Receipt, error) {
	data, err := readPayload(filename)
	if err != nil {
		return nil, err
	}
	return c.Upload(ctx, dest, format, data, batchReceipt)
}

// Upload deletes dest and then ingests data with opts. An empty payload is
// rejected before anything is deleted.
func (c *Client) Upload(ctx context.Context, dest string, format Format, data []byte, opts IngestOptions) (*Receipt, error) {
	if len(data) == 0 {
		return nil, newClientError(ErrInvalidInput, "empty payload")
	}
	if err := c.Delete(ctx, dest); err != nil {
		return nil, fmt.Errorf("failed to clear %s before upload: %w", dest, err)
	}
	return c.Ingest(ctx, dest, format, data, opts)
}

// Delete removes all data stored at path.
func (c *Client) Delete(ctx context.Context, path string) error {
	req, err := c.builder.Delete(path)
	if err != nil {
		return err
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	return classifyEmpty(req, resp)
}

func readPayload(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return data, nil
}
