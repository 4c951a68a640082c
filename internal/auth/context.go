package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

const (
	CapEditPrivateProducts = "edit_private_products"
	CapReadSupplier        = "read_supplier"
)

// Capabilities are the permissions the gateway forwards for the calling user.
type Capabilities struct {
	EditPrivateProducts bool
	ReadSupplier        bool
}

// GetUserID returns the x-user-id metadata of the call, if any.
func GetUserID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if val := md.Get("x-user-id"); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

// GetCapabilities parses the comma separated x-capabilities metadata. Unknown names are ignored.
func GetCapabilities(ctx context.Context) Capabilities {
	var caps Capabilities
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return caps
	}
	for _, raw := range md.Get("x-capabilities") {
		for _, name := range strings.Split(raw, ",") {
			switch strings.TrimSpace(name) {
			case CapEditPrivateProducts:
				caps.EditPrivateProducts = true
			case CapReadSupplier:
				caps.ReadSupplier = true
			}
		}
	}
	return caps
}
