package runner

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/samvad-hq/samvad-httpkit/pkg/httpclient"
	"github.com/samvad-hq/samvad-httpkit/pkg/profiles"
)

const (
	saveWritten   = "written"
	saveDuplicate = "duplicate"
	saveSkipped   = "skipped"
	saveFailed    = "failed"
)

// save writes successful bodies to the profile's directory, reusing an
// earlier file when the ledger already holds identical content saved under
// the same directory and requested filename.
func (s *Service) save(cfg profiles.Profile, resp *httpclient.Response) (string, error) {
	if !resp.IsOK() || len(resp.Content()) == 0 {
		s.recordSave(saveSkipped)
		return "", nil
	}

	key := ledgerKey(cfg.Save.Dir, cfg.Save.Filename, resp.Content())
	if name, ok := s.lookup(key); ok {
		if _, err := os.Stat(filepath.Join(cfg.Save.Dir, name)); err == nil {
			s.recordSave(saveDuplicate)
			s.log.DebugObj("identical body already saved", "save_duplicate", map[string]any{
				"profile_id": cfg.ID,
				"file":       name,
			})
			return name, nil
		}
	}

	name, err := resp.Save(cfg.Save.Dir, cfg.Save.Filename, cfg.Save.AppendSuffixValue())
	if err != nil {
		s.recordSave(saveFailed)
		return "", err
	}
	s.recordSave(saveWritten)

	if s.ledger != nil {
		if err := s.ledger.Record(key, name); err != nil {
			s.log.WarnObj("save ledger record failed", "ledger_error", map[string]any{
				"profile_id": cfg.ID,
				"error":      err.Error(),
			})
		}
	}
	s.log.InfoObj("response body saved", "save_result", map[string]any{
		"profile_id": cfg.ID,
		"dir":        cfg.Save.Dir,
		"file":       name,
	})
	return name, nil
}

func (s *Service) lookup(key string) (string, bool) {
	if s.ledger == nil {
		return "", false
	}
	name, ok, err := s.ledger.Lookup(key)
	if err != nil {
		s.log.WarnObj("save ledger lookup failed", "ledger_error", err.Error())
		return "", false
	}
	return name, ok
}

func (s *Service) recordSave(result string) {
	if s.recorder != nil {
		s.recorder.RecordSave(result)
	}
}

func ledgerKey(dir, filename string, body []byte) string {
	sum := md5.Sum(body)
	return filepath.Clean(dir) + "|" + filename + "|" + hex.EncodeToString(sum[:])
}
