package hcloud

import (
	"errors"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/surfspot/internal/workspace"
)

// isHCloudErrorCode checks if the error is an hcloud API error with one of the given codes.
func isHCloudErrorCode(err error, codes ...hcloud.ErrorCode) bool {
	if err == nil {
		return false
	}

	var hcloudErr hcloud.Error
	if errors.As(err, &hcloudErr) {
		for _, code := range codes {
			if hcloudErr.Code == code {
				return true
			}
		}
	}
	return false
}

// IsNotFound checks if an error indicates a resource was not found.
func IsNotFound(err error) bool {
	return isHCloudErrorCode(err, hcloud.ErrorCodeNotFound)
}

// providerError converts an hcloud failure into the workspace error
// taxonomy, keeping the original error in the chain.
func providerError(op string, resp *hcloud.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	if IsNotFound(err) {
		err = fmt.Errorf("%w: %w", workspace.ErrNotFound, err)
	}
	return &workspace.ProviderError{Op: op, StatusCode: status, Err: err}
}
