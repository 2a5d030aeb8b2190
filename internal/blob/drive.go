package blob

import (
	"bytes"
	"context"
	"fmt"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Drive uploads files into a shared Google Drive folder and makes them
// readable by anyone with the link.
type Drive struct {
	svc      *drive.Service
	folderID string
}

func NewDrive(ctx context.Context, credentialsFile, folderID string) (*Drive, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveFileScope))
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Drive{svc: svc, folderID: folderID}, nil
}

func (d *Drive) Upload(ctx context.Context, data []byte, filename, title string) (string, error) {
	mime, ext := contentType(filename)
	meta := &drive.File{
		Name:    safeName(title, ext),
		Parents: []string{d.folderID},
	}

	created, err := d.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mime)).
		SupportsAllDrives(true).
		Fields("id", "webViewLink").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive upload: %w", err)
	}

	_, err = d.svc.Permissions.Create(created.Id, &drive.Permission{Type: "anyone", Role: "reader"}).
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive permission: %w", err)
	}
	return created.WebViewLink, nil
}
