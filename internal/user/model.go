package user

// Summary is the reduced record shape returned by List.
type Summary struct {
	Nickname   string
	Registered int64
}

// Profile is the full two-section user record. Nil pointer fields mean
// the value is absent in the store.
type Profile struct {
	Public     PublicProfile
	Restricted RestrictedProfile
}

// PublicProfile holds the fields every caller may see.
type PublicProfile struct {
	Registered int64
	Nickname   string
	Signature  *string
	Avatar     *string
}

// RestrictedProfile holds the fields reserved for the owner.
type RestrictedProfile struct {
	Firstname *string
	Lastname  *string
	Email     *string
	Website   *string
	Mobile    *string
	Skype     *string
	Age       *int64
	Residence *string
	Gender    *string
	Picture   *string
}
