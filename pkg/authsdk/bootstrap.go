package authsdk

import (
	"context"
	"net/http"
)

// BootstrapTokenHeader carries the operator-configured bootstrap token.
const BootstrapTokenHeader = "X-Bootstrap-Token"

// Bootstrap creates the first admin account. It only succeeds once, on an
// empty service with bootstrap enabled.
func (c *SDKClient) Bootstrap(
	ctx context.Context,
	token string,
	req BootstrapRequest,
) (*BootstrapResponse, error) {
	var resp BootstrapResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/bootstrap", "",
		map[string]string{BootstrapTokenHeader: token},
		req, &resp, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
