// Package documents provides source document loading, synthetic corpus
// generation, and chunk report writing for chunklab runs
package documents

import (
	"fmt"
	"os"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/types"
)

// readSource reads the file at path, mapping a missing file to the typed
// document-not-found error so runs fail fast with a clear code
func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewDocumentNotFoundError(path)
		}
		return nil, errors.NewWithCause(types.ErrorTypeInternal, errors.ErrCodeFileError,
			fmt.Sprintf("failed to read document: %s", path), err)
	}
	return data, nil
}
