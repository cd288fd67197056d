package timesheet

import "context"

// TimesheetService coordinates entry writes: rule checks, persistence and geofence validation.
type TimesheetService interface {
	CreateEntry(ctx context.Context, req CreateEntryRequest) (EntryResult, error)
	UpdateEntry(ctx context.Context, req UpdateEntryRequest) (EntryResult, error)
	BulkCreateEntries(ctx context.Context, req BulkCreateRequest) (BulkCreateResponse, error)
	CheckDuplicate(ctx context.Context, req CheckDuplicateRequest) (CheckDuplicateResponse, error)
	GetEntry(ctx context.Context, id string) (EntryResponse, error)
}
