package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// DateLayout is the canonical calendar date format persisted locally and
// remotely (lastConsumptionDate).
const DateLayout = "2006-01-02"
