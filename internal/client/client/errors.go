package client

import (
	"fmt"

	"github.com/dmitrijs2005/sheetsync/internal/common"
)

var (
	ErrUnavailable  = fmt.Errorf("%w: server unavailable", common.ErrNetwork)
	ErrUnauthorized = fmt.Errorf("%w: unauthorized", common.ErrPermission)
)
