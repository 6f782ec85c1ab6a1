package archive

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"playmi/internal/catalog"
	"playmi/internal/fault"
	"playmi/internal/fileutil"
	"playmi/internal/packaging"
)

// partialSuffix marks in-progress artifacts next to their final path.
const partialSuffix = ".partial"

// Request describes one archive build.
type Request struct {
	PackageID   string
	Name        string
	Version     string
	Contents    []*catalog.Content
	Branding    packaging.Branding
	Wifi        packaging.WifiConfig
	Advertising packaging.AdvertisingRefs
	// CompanyLogoPath is bundled under branding/ when Branding.UseCompanyLogo
	// is set and the path is non-empty.
	CompanyLogoPath string
	FinalPath       string
}

// Result describes a finished, verified archive.
type Result struct {
	Path           string
	SizeBytes      int64
	ChecksumSHA256 string
	Manifest       []packaging.ManifestEntry
}

// ProgressFunc receives a callback after each archived file.
type ProgressFunc func(processed, total int, name string)

// Builder assembles package archives.
type Builder struct{}

// NewBuilder constructs a Builder.
func NewBuilder() *Builder { return &Builder{} }

// TotalFiles returns how many files a build for the request will process:
// every content file, the optional branding logo, and the manifest.
func (b *Builder) TotalFiles(req Request) int {
	total := len(req.Contents) + 1
	if req.Branding.UseCompanyLogo && req.CompanyLogoPath != "" {
		total++
	}
	return total
}

// Build assembles the archive for req, invoking onFile after each archived
// file. The artifact appears at req.FinalPath only after its checksum has
// been computed and verified; any failure removes the partial file.
func (b *Builder) Build(ctx context.Context, req Request, onFile ProgressFunc) (*Result, error) {
	if req.FinalPath == "" {
		return nil, fmt.Errorf("archive build: final path not set")
	}
	if len(req.Contents) == 0 {
		return nil, fmt.Errorf("archive build: no contents")
	}
	if onFile == nil {
		onFile = func(int, int, string) {}
	}

	if err := os.MkdirAll(filepath.Dir(req.FinalPath), 0o755); err != nil {
		return nil, fault.NewIO("create archive directory", filepath.Dir(req.FinalPath), err)
	}

	partialPath := req.FinalPath + partialSuffix
	result, err := b.writePartial(ctx, req, partialPath, onFile)
	if err != nil {
		_ = os.Remove(partialPath)
		return nil, err
	}

	if err := fileutil.MoveFile(partialPath, req.FinalPath); err != nil {
		_ = os.Remove(partialPath)
		return nil, fault.NewIO("finalize archive", req.FinalPath, err)
	}
	result.Path = req.FinalPath
	return result, nil
}

func (b *Builder) writePartial(ctx context.Context, req Request, partialPath string, onFile ProgressFunc) (*Result, error) {
	out, err := os.Create(partialPath)
	if err != nil {
		return nil, fault.NewIO("create archive", partialPath, err)
	}
	defer func() {
		_ = out.Close()
	}()

	zw := zip.NewWriter(out)
	total := b.TotalFiles(req)
	processed := 0
	used := make(map[string]struct{}, len(req.Contents)+2)
	entries := make([]packaging.ManifestEntry, 0, len(req.Contents))

	for _, content := range req.Contents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entryName(used, content)
		entry, err := addContent(zw, content, name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
		processed++
		onFile(processed, total, name)
	}

	if req.Branding.UseCompanyLogo && req.CompanyLogoPath != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logoName := path.Join(BrandingDir, "logo"+filepath.Ext(req.CompanyLogoPath))
		if err := addFile(zw, req.CompanyLogoPath, logoName, zip.Deflate); err != nil {
			return nil, err
		}
		processed++
		onFile(processed, total, logoName)
	}

	manifest := Manifest{
		PackageID:   req.PackageID,
		Name:        req.Name,
		Version:     req.Version,
		GeneratedAt: time.Now().UTC(),
		Contents:    entries,
		Branding:    req.Branding,
		Wifi:        req.Wifi,
		Advertising: req.Advertising,
		Portal:      portalFlags(req.Contents, req.Advertising),
	}
	if err := addManifest(zw, manifest); err != nil {
		return nil, err
	}
	processed++
	onFile(processed, total, ManifestName)

	if err := zw.Close(); err != nil {
		return nil, fault.NewIO("close archive", partialPath, err)
	}
	if err := out.Sync(); err != nil {
		return nil, fault.NewIO("sync archive", partialPath, err)
	}
	if err := out.Close(); err != nil {
		return nil, fault.NewIO("close archive file", partialPath, err)
	}

	checksum, err := fileutil.SHA256File(partialPath)
	if err != nil {
		return nil, fault.NewIO("checksum archive", partialPath, err)
	}
	info, err := os.Stat(partialPath)
	if err != nil {
		return nil, fault.NewIO("stat archive", partialPath, err)
	}
	if info.Size() == 0 {
		return nil, fault.NewIntegrity(partialPath, "archive is empty")
	}

	return &Result{
		SizeBytes:      info.Size(),
		ChecksumSHA256: checksum,
		Manifest:       entries,
	}, nil
}

// entryName places a content file under its group directory, disambiguating
// basename collisions with the content id.
func entryName(used map[string]struct{}, content *catalog.Content) string {
	base := filepath.Base(content.Path)
	name := path.Join(content.Type.GroupDir(), base)
	if _, taken := used[name]; taken {
		name = path.Join(content.Type.GroupDir(), fmt.Sprintf("%d_%s", content.ID, base))
	}
	used[name] = struct{}{}
	return name
}

// addContent streams one media file into the archive, hashing it in transit.
// Media is stored uncompressed; the formats are already compressed and
// deflating them again wastes bundling time for multi-gigabyte inputs.
func addContent(zw *zip.Writer, content *catalog.Content, name string) (*packaging.ManifestEntry, error) {
	in, err := os.Open(content.Path)
	if err != nil {
		return nil, fault.NewIO("open content", content.Path, err)
	}
	defer in.Close()

	writer, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: time.Now().UTC(),
	})
	if err != nil {
		return nil, fault.NewIO("create archive entry", name, err)
	}

	hasher := sha256.New()
	written, err := io.Copy(writer, io.TeeReader(in, hasher))
	if err != nil {
		return nil, fault.NewIO("archive content", content.Path, err)
	}

	digest := hex.EncodeToString(hasher.Sum(nil))
	if content.ChecksumSHA256 != "" && content.ChecksumSHA256 != digest {
		return nil, fault.NewIntegrity(content.Path, "content %d checksum mismatch: recorded %s, streamed %s", content.ID, content.ChecksumSHA256, digest)
	}

	return &packaging.ManifestEntry{
		ContentID:      content.ID,
		Type:           content.Type,
		RelativePath:   name,
		SizeBytes:      written,
		ChecksumSHA256: digest,
	}, nil
}

func addFile(zw *zip.Writer, srcPath, name string, method uint16) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return fault.NewIO("open file", srcPath, err)
	}
	defer in.Close()

	writer, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: time.Now().UTC(),
	})
	if err != nil {
		return fault.NewIO("create archive entry", name, err)
	}
	if _, err := io.Copy(writer, in); err != nil {
		return fault.NewIO("archive file", srcPath, err)
	}
	return nil
}

func addManifest(zw *zip.Writer, manifest Manifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	writer, err := zw.CreateHeader(&zip.FileHeader{
		Name:     ManifestName,
		Method:   zip.Deflate,
		Modified: time.Now().UTC(),
	})
	if err != nil {
		return fault.NewIO("create archive entry", ManifestName, err)
	}
	if _, err := writer.Write(data); err != nil {
		return fault.NewIO("write manifest", ManifestName, err)
	}
	return nil
}
