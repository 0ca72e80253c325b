// Package backup implements the sealed backup archive: a small header
// (magic, format version, timestamp, payload length) wrapping one
// encrypted frame whose plaintext is a ZIP containing the manifest,
// every included blob verbatim (never re-encrypted), and optionally
// the password configuration.
package backup

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ghostvault/internal/crypto"
	vaulterrors "ghostvault/internal/errors"
	"ghostvault/internal/filestore"
	"ghostvault/internal/frame"
	"ghostvault/internal/log"
	"ghostvault/internal/metadata"
)

const (
	Magic         = "GHOSTVAULT_BACKUP"
	FormatVersion = 1

	defaultCompressionLevel = 6
)

// Options configures backup creation and restore, mirroring the
// recognized options from the external interface.
type Options struct {
	IncludeConfiguration bool
	ContinueOnError      bool
	ExtensionFilter      map[string]struct{} // nil means no filter
	DateFilterMs         int64               // 0 means no filter
	CompressionLevel     int                 // 0-9; 0 is treated as the default (6)
	OverwriteExisting    bool
	BackupExistingVault  bool
	RestoreConfiguration bool
	VerifyIntegrity      bool
}

// Manifest is the authoritative, fully populated description of a
// backup's contents. Restoring a backup reads this list back exactly
// as written; nothing is reconstructed.
type Manifest struct {
	FormatVersion        uint32                     `json:"format_version"`
	CreatedAtMs          int64                      `json:"created_at"`
	FileCount            uint64                     `json:"file_count"`
	TotalPlaintextSize   uint64                     `json:"total_plaintext_size"`
	IncludeConfiguration bool                       `json:"include_configuration"`
	Files                []*metadata.FileDescriptor `json:"files"`
}

// RestoreResult reports what a restore actually did.
type RestoreResult struct {
	Restored int
	Skipped  int
}

// CreateBackup builds a sealed archive at outputPath covering the
// descriptors in meta's registry that match opts, plus their blobs
// from files, plus (optionally) the password config under vaultRoot.
func CreateBackup(files *filestore.Store, meta *metadata.Store, vaultRoot, outputPath string, opts Options, backupKey string) error {
	selected := selectDescriptors(meta.Registry.List(), opts)

	zipBuf, err := buildZip(files, meta, vaultRoot, selected, opts)
	if err != nil {
		return err
	}
	defer crypto.SecureZero(zipBuf)

	salt, iv, ciphertext, err := crypto.Encrypt(zipBuf, []byte(backupKey))
	if err != nil {
		return err
	}
	payload, err := frame.Serialize(frame.MagicBlob, salt, iv, ciphertext)
	if err != nil {
		return err
	}

	header := encodeHeader(FormatVersion, time.Now().UnixMilli(), uint32(len(payload)))

	var out bytes.Buffer
	out.Write(header)
	out.Write(payload)

	if err := atomicWrite(outputPath, out.Bytes()); err != nil {
		return err
	}
	log.Info("created backup", log.String("path", outputPath), log.Int("file_count", len(selected)))
	return nil
}

// VerifyBackup decrypts and parses path without writing anything to
// the live vault, returning the manifest if every declared blob is
// present and non-empty inside the archive.
func VerifyBackup(path, backupKey string) (*Manifest, error) {
	zr, _, err := openArchive(path, backupKey)
	if err != nil {
		return nil, err
	}

	manifest, blobSizes, err := readManifestAndBlobSizes(zr)
	if err != nil {
		return nil, err
	}

	for _, desc := range manifest.Files {
		size, ok := blobSizes["files/"+desc.BlobName]
		if !ok || size == 0 {
			return nil, vaulterrors.NewValidationError("backup", "declared blob missing or empty: "+desc.BlobName)
		}
	}
	return manifest, nil
}

// RestoreBackup extracts path and copies its blobs and metadata into
// the vault rooted at vaultRoot. If opts.BackupExistingVault is set and
// the vault already holds data, a pre-restore snapshot is taken first;
// a fatal failure rolls back to that snapshot.
func RestoreBackup(files *filestore.Store, meta *metadata.Store, vaultRoot string, path string, opts Options, backupKey string) (*RestoreResult, error) {
	var preRestorePath string
	if opts.BackupExistingVault && meta.Registry.Count() > 0 {
		preRestorePath = filepath.Join(filepath.Dir(path), filepath.Base(path)+"_pre_restore_"+timestamp())
		if err := CreateBackup(files, meta, vaultRoot, preRestorePath, opts, backupKey); err != nil {
			return nil, err
		}
	}

	result, err := restore(files, meta, vaultRoot, path, opts, backupKey)
	if err != nil {
		if preRestorePath != "" {
			if rbErr := rollback(files, meta, vaultRoot, preRestorePath, backupKey); rbErr != nil {
				log.Warn("restore rollback failed", log.Err(rbErr))
			}
		}
		return nil, err
	}
	return result, nil
}

func restore(files *filestore.Store, meta *metadata.Store, vaultRoot, path string, opts Options, backupKey string) (*RestoreResult, error) {
	zr, _, err := openArchive(path, backupKey)
	if err != nil {
		return nil, err
	}

	manifest, _, err := readManifestAndBlobSizes(zr)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{}
	filesDir := files.Root()
	if err := os.MkdirAll(filesDir, 0700); err != nil {
		return nil, vaulterrors.NewStorageError("mkdir", filesDir, err)
	}

	for _, zf := range zr.File {
		if !strings.HasPrefix(zf.Name, "files/") {
			continue
		}
		blobName := strings.TrimPrefix(zf.Name, "files/")
		dest := filepath.Join(filesDir, blobName)

		if !opts.OverwriteExisting {
			if _, err := os.Stat(dest); err == nil {
				result.Skipped++
				continue
			}
		}

		data, err := readZipFile(zf)
		if err != nil {
			if opts.ContinueOnError {
				continue
			}
			return nil, err
		}
		if err := os.WriteFile(dest, data, 0600); err != nil {
			if opts.ContinueOnError {
				continue
			}
			return nil, vaulterrors.NewStorageError("write", dest, err)
		}
		result.Restored++
	}

	metaZipFile := findZipFile(zr, "metadata.enc")
	if metaZipFile != nil {
		metaBytes, err := readZipFile(metaZipFile)
		if err != nil {
			return nil, err
		}
		metaDest := filepath.Join(vaultRoot, "metadata.enc")
		if opts.OverwriteExisting || !fileExists(metaDest) {
			if err := os.WriteFile(metaDest, metaBytes, 0600); err != nil {
				return nil, vaulterrors.NewStorageError("write", metaDest, err)
			}
		}
	}

	if opts.RestoreConfiguration {
		for _, zf := range zr.File {
			if !strings.HasPrefix(zf.Name, "config/") {
				continue
			}
			name := strings.TrimPrefix(zf.Name, "config/")
			data, err := readZipFile(zf)
			if err != nil {
				continue
			}
			os.WriteFile(filepath.Join(vaultRoot, name), data, 0600)
		}
	}

	if opts.VerifyIntegrity {
		for _, desc := range manifest.Files {
			dest := filepath.Join(filesDir, desc.BlobName)
			info, err := os.Stat(dest)
			if err != nil || info.Size() < 16 {
				return nil, vaulterrors.NewValidationError("backup", "restored blob failed integrity pass: "+desc.BlobName)
			}
		}
	}

	return result, nil
}

// rollback restores the pre-restore snapshot over a failed restore
// attempt, overwriting whatever partial state the failed restore left
// behind.
func rollback(files *filestore.Store, meta *metadata.Store, vaultRoot, snapshotPath, backupKey string) error {
	opts := Options{OverwriteExisting: true, RestoreConfiguration: true}
	_, err := restore(files, meta, vaultRoot, snapshotPath, opts, backupKey)
	return err
}

func selectDescriptors(all []*metadata.FileDescriptor, opts Options) []*metadata.FileDescriptor {
	var out []*metadata.FileDescriptor
	for _, desc := range all {
		if opts.ExtensionFilter != nil {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(desc.OriginalName), "."))
			if _, ok := opts.ExtensionFilter[ext]; !ok {
				continue
			}
		}
		if opts.DateFilterMs != 0 && desc.UploadTimeMs < opts.DateFilterMs {
			continue
		}
		out = append(out, desc)
	}
	return out
}

func buildZip(files *filestore.Store, meta *metadata.Store, vaultRoot string, selected []*metadata.FileDescriptor, opts Options) ([]byte, error) {
	level := opts.CompressionLevel
	if level == 0 {
		level = defaultCompressionLevel
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	var totalSize uint64
	for _, desc := range selected {
		blobPath := filepath.Join(files.Root(), desc.BlobName)
		data, err := os.ReadFile(blobPath)
		if err != nil {
			return nil, vaulterrors.NewStorageError("read", blobPath, err)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: "files/" + desc.BlobName, Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		totalSize += desc.PlaintextSize
	}

	metaPath := filepath.Join(vaultRoot, "metadata.enc")
	if data, err := os.ReadFile(metaPath); err == nil {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: "metadata.enc", Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}

	if opts.IncludeConfiguration {
		entries, _ := os.ReadDir(vaultRoot)
		for _, e := range entries {
			if e.IsDir() || !strings.HasPrefix(e.Name(), "config") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(vaultRoot, e.Name()))
			if err != nil {
				continue
			}
			w, err := zw.CreateHeader(&zip.FileHeader{Name: "config/" + e.Name(), Method: zip.Deflate})
			if err != nil {
				return nil, err
			}
			w.Write(data)
		}
	}

	manifest := &Manifest{
		FormatVersion:        FormatVersion,
		CreatedAtMs:          time.Now().UnixMilli(),
		FileCount:            uint64(len(selected)),
		TotalPlaintextSize:   totalSize,
		IncludeConfiguration: opts.IncludeConfiguration,
		Files:                selected,
	}
	manifestBytes, err := json.Marshal(manifest)
	if err != nil {
		return nil, err
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "manifest.json", Method: zip.Deflate})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(manifestBytes); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func openArchive(path, backupKey string) (*zip.Reader, []byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, vaulterrors.NewStorageError("read", path, err)
	}

	_, _, payloadLen, headerLen, err := decodeHeader(raw)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) < headerLen+payloadLen {
		return nil, nil, vaulterrors.NewFrameError("too_short")
	}
	payload := raw[headerLen : headerLen+payloadLen]

	f, err := frame.Deserialize(payload, frame.MagicBlob)
	if err != nil {
		return nil, nil, err
	}
	plaintext, err := crypto.Decrypt(f.Salt, f.IV, f.Ciphertext, []byte(backupKey))
	if err != nil {
		return nil, nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(plaintext), int64(len(plaintext)))
	if err != nil {
		return nil, nil, vaulterrors.NewValidationError("backup", "archive is not a valid zip")
	}
	return zr, plaintext, nil
}

func readManifestAndBlobSizes(zr *zip.Reader) (*Manifest, map[string]int64, error) {
	sizes := make(map[string]int64)
	var manifestBytes []byte

	for _, zf := range zr.File {
		if zf.Name == "manifest.json" {
			data, err := readZipFile(zf)
			if err != nil {
				return nil, nil, err
			}
			manifestBytes = data
			continue
		}
		if strings.HasPrefix(zf.Name, "files/") {
			sizes[zf.Name] = int64(zf.UncompressedSize64)
		}
	}

	if manifestBytes == nil {
		return nil, nil, vaulterrors.NewValidationError("backup", "archive missing manifest.json")
	}

	var manifest Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, nil, vaulterrors.NewValidationError("backup", "malformed manifest.json")
	}
	return &manifest, sizes, nil
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, zf := range zr.File {
		if zf.Name == name {
			return zf
		}
	}
	return nil
}

func readZipFile(zf *zip.File) ([]byte, error) {
	rc, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func timestamp() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

// encodeHeader writes the length-prefixed magic, format version,
// timestamp, and payload length, in that order.
func encodeHeader(version uint32, timestampMs int64, payloadLen uint32) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(Magic)))
	buf.WriteString(Magic)
	binary.Write(&buf, binary.BigEndian, version)
	binary.Write(&buf, binary.BigEndian, timestampMs)
	binary.Write(&buf, binary.BigEndian, payloadLen)
	return buf.Bytes()
}

// decodeHeader parses the header at the front of raw, returning the
// format version, timestamp, payload length, and the header's total
// byte length (so the caller knows where the payload starts).
func decodeHeader(raw []byte) (version uint32, timestampMs int64, payloadLen uint32, headerLen int, err error) {
	if len(raw) < 4 {
		return 0, 0, 0, 0, vaulterrors.NewFrameError("too_short")
	}
	magicLen := int(binary.BigEndian.Uint32(raw[0:4]))
	pos := 4 + magicLen
	if len(raw) < pos+4+8+4 {
		return 0, 0, 0, 0, vaulterrors.NewFrameError("too_short")
	}
	if string(raw[4:4+magicLen]) != Magic {
		return 0, 0, 0, 0, vaulterrors.NewFrameError("bad_magic")
	}
	version = binary.BigEndian.Uint32(raw[pos : pos+4])
	pos += 4
	timestampMs = int64(binary.BigEndian.Uint64(raw[pos : pos+8]))
	pos += 8
	payloadLen = binary.BigEndian.Uint32(raw[pos : pos+4])
	pos += 4
	return version, timestampMs, payloadLen, pos, nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return vaulterrors.NewStorageError("open", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return vaulterrors.NewStorageError("write", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return vaulterrors.NewStorageError("flush", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return vaulterrors.NewStorageError("flush", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return vaulterrors.NewStorageError("rename", path, err)
	}
	return nil
}
