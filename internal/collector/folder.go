package collector

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// DefaultDriveAPI is the base URL of the Drive v3 files API.
	DefaultDriveAPI = "https://www.googleapis.com/drive/v3"

	mimeGoogleSheet = "application/vnd.google-apps.spreadsheet"
)

// FolderLoader lists a folder of dated snapshot files through a Drive-v3
// style REST API, downloads every workbook in it and concatenates the
// records in file-name order. Native spreadsheets are exported as csv.
type FolderLoader struct {
	BaseURL  string
	FolderID string
	Token    string
	Client   *http.Client
}

// NewFolderLoader creates a folder loader with optional proxy support.
func NewFolderLoader(baseURL, folderID, token, proxyURL string) *FolderLoader {
	if baseURL == "" {
		baseURL = DefaultDriveAPI
	}
	return &FolderLoader{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		FolderID: folderID,
		Token:    token,
		Client:   newHTTPClient(proxyURL),
	}
}

func (l *FolderLoader) Name() string { return "folder:" + l.FolderID }

// driveFile is the subset of the Drive file resource we use.
type driveFile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

type driveFileList struct {
	Files         []driveFile `json:"files"`
	NextPageToken string      `json:"nextPageToken"`
}

func (l *FolderLoader) Load(ctx context.Context) (*Table, error) {
	files, err := l.listFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("folder %s: no spreadsheet files", l.FolderID)
	}

	combined := &Table{}
	for _, f := range files {
		data, err := download(ctx, l.Client, l.fileURL(f), l.Token)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", f.Name, err)
		}
		name := f.Name
		if f.MimeType == mimeGoogleSheet {
			name += ".csv"
		}
		t, err := ParseSource(name, data)
		if err != nil {
			return nil, err
		}
		log.Printf("[INFO] snapshot %s: %d records, %d dropped", f.Name, len(t.Records), t.Dropped)
		combined.Records = append(combined.Records, t.Records...)
		combined.Dropped += t.Dropped
	}
	return combined, nil
}

func (l *FolderLoader) fileURL(f driveFile) string {
	id := url.PathEscape(f.ID)
	if f.MimeType == mimeGoogleSheet {
		return fmt.Sprintf("%s/files/%s/export?mimeType=%s", l.BaseURL, id, url.QueryEscape("text/csv"))
	}
	return fmt.Sprintf("%s/files/%s?alt=media", l.BaseURL, id)
}

// listFiles pages through the folder and returns the usable files sorted by name.
func (l *FolderLoader) listFiles(ctx context.Context) ([]driveFile, error) {
	var files []driveFile
	pageToken := ""
	for {
		q := url.Values{}
		q.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", l.FolderID))
		q.Set("fields", "nextPageToken, files(id, name, mimeType, modifiedTime)")
		q.Set("pageSize", "100")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		body, err := download(ctx, l.Client, l.BaseURL+"/files?"+q.Encode(), l.Token)
		if err != nil {
			return nil, fmt.Errorf("list folder: %w", err)
		}
		var page driveFileList
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode file list: %w", err)
		}
		for _, f := range page.Files {
			if usableFile(f) {
				files = append(files, f)
			}
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func usableFile(f driveFile) bool {
	if f.MimeType == mimeGoogleSheet {
		return true
	}
	switch strings.ToLower(path.Ext(f.Name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}
