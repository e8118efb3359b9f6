// Package licensor issues and verifies software licenses: small documents of
// named features bound together by an asymmetric signature.
//
// Install with:
//
//	go get github.com/CloudNativeWorks/cnw-licensor/licensor
//
// A Document holds string features. Typed accessors store integers, dates
// (YYYY-MM-DD), UUID identifiers and URLs in a fixed text form. Signing and
// verification operate on a canonical encoding of the feature set that does
// not depend on insertion order.
//
// # Issuing
//
//	doc := licensor.MustNew()
//	doc.SetFeature("edition", "enterprise")
//	doc.SetExpiry(time.Date(2030, 1, 31, 0, 0, 0, 0, time.Local))
//	doc.GenerateLicenseID()
//	doc.SetRevocationURL("https://license.example.com/check/${licenseId}")
//	err := doc.Sign(privateKey)
//	raw, err := licensor.MarshalFile(doc)
//
// # Verifying
//
//	doc, err := licensor.UnmarshalFile(raw)
//	if !doc.IsVerified(publicKey) || doc.IsExpired() {
//	    // reject
//	}
//	revoked := licensor.NewRevocationChecker().IsRevoked(ctx, doc)
//
// Signature, expiry and revocation are separate checks; Checker combines them.
package licensor
