package services

import (
	"github.com/rentcard-app/rentcard_backend/models"
)

// ShareContext carries the platform and method signals captured at share
// time.
type ShareContext struct {
	Platform models.PlatformType
	Method   string
}

// channelTable enumerates the full platform x method input space as a lookup
// table so the mapping stays auditable: every valid combination yields
// exactly one channel.
var channelTable = map[models.PlatformType]map[string]models.ChannelType{
	models.PlatformMobile: {
		"native_share": models.ChannelNativeShare,
		"clipboard":    models.ChannelClipboard,
		"email":        models.ChannelEmail,
		"sms":          models.ChannelSMS,
		"qr_code":      models.ChannelQRCode,
		"direct_link":  models.ChannelDirectLink,
	},
	models.PlatformDesktop: {
		"native_share": models.ChannelNativeShare,
		"clipboard":    models.ChannelClipboard,
		"email":        models.ChannelEmail,
		"sms":          models.ChannelSMS,
		"qr_code":      models.ChannelQRCode,
		"direct_link":  models.ChannelDirectLink,
	},
	models.PlatformTablet: {
		"native_share": models.ChannelNativeShare,
		"clipboard":    models.ChannelClipboard,
		"email":        models.ChannelEmail,
		"sms":          models.ChannelSMS,
		"qr_code":      models.ChannelQRCode,
		"direct_link":  models.ChannelDirectLink,
	},
}

// DetermineChannel resolves the acquisition channel from platform + method
// signals. Pure function, no side effects. Unknown inputs fall back to
// direct_link so the mapping is total over anything a client can send.
func DetermineChannel(sc ShareContext) models.ChannelType {
	if methods, ok := channelTable[sc.Platform]; ok {
		if channel, ok := methods[sc.Method]; ok {
			return channel
		}
	}
	return models.ChannelDirectLink
}

// FallbackChannel maps an attempted channel to what must be recorded when
// the attempt fails and the caller falls back to the clipboard. The actually
// used method is recorded, never the originally intended one.
func FallbackChannel(attempted models.ChannelType) models.ChannelType {
	if attempted == models.ChannelNativeShare {
		return models.ChannelClipboardFallback
	}
	return attempted
}
