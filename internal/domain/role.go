package domain

// RoleUser is granted to every registered account. No endpoint checks roles;
// they are stored and published for downstream consumers.
const RoleUser = "user"
