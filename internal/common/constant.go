package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// on authenticated requests.
const AccessTokenHeaderName = "Authorization"

// DigestChunkSize is the read-buffer size used when streaming content
// through the digest pipeline. Content is never loaded wholly into memory.
const DigestChunkSize = 4096
