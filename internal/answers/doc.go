// Package answers owns the questionnaire's accumulated state: one answer
// mapping shared by every step plus the section-completion flags. The Store
// merges partial updates shallowly and writes the full record back through a
// Repository after every mutation. Persistence failures never reach callers;
// they are logged and the Store keeps serving from memory.
package answers
