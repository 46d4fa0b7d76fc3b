package repositories

import (
	"chat-relay/domain"
	"fmt"
	"strings"
	"time"
)

// Key layout, one badger keyspace for the whole store:
//
//	chat:{chatID}                              -> chat record
//	idx:participant:{accountID}:{chatID}       -> empty
//	idx:direct:{accountA}:{accountB}           -> chatID (pair sorted)
//	msg:{chatID}:{createdAt %019d}:{messageID} -> message record
//	idx:message:{messageID}                    -> message key
//	account:{accountID}                        -> account record
//	idx:credentials:{credentialsID}            -> accountID
//	token:{accountID}                          -> device token record
//	friendship:{accountA}:{accountB}           -> friendship record (pair sorted)
const (
	ChatPrefix        = "chat:"
	ParticipantPrefix = "idx:participant:"
	DirectPrefix      = "idx:direct:"
	MessagePrefix     = "msg:"
	MessageIdxPrefix  = "idx:message:"
	AccountPrefix     = "account:"
	CredentialsPrefix = "idx:credentials:"
	TokenPrefix       = "token:"
	FriendshipPrefix  = "friendship:"
)

func chatKey(chatID string) []byte {
	return []byte(ChatPrefix + chatID)
}

func participantKey(accountID, chatID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", ParticipantPrefix, accountID, chatID))
}

func participantScan(accountID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", ParticipantPrefix, accountID))
}

func directKey(accountID, friendID string) []byte {
	a, b := domain.FriendPair(accountID, friendID)
	return []byte(fmt.Sprintf("%s%s:%s", DirectPrefix, a, b))
}

// messageKey sorts messages of a chat chronologically: the 19 digit zero
// padding keeps lexicographical and numerical order aligned, the id breaks ties.
func messageKey(chatID string, at time.Time, messageID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", MessagePrefix, chatID, at.UnixNano(), messageID))
}

func messageScan(chatID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", MessagePrefix, chatID))
}

func messageIdxKey(messageID string) []byte {
	return []byte(MessageIdxPrefix + messageID)
}

// messageIDFromKey extracts the trailing id of a msg: key.
func messageIDFromKey(key []byte) string {
	k := string(key)
	return k[strings.LastIndex(k, ":")+1:]
}

func accountKey(accountID string) []byte {
	return []byte(AccountPrefix + accountID)
}

func credentialsKey(credentialsID string) []byte {
	return []byte(CredentialsPrefix + credentialsID)
}

func tokenKey(accountID string) []byte {
	return []byte(TokenPrefix + accountID)
}

func friendshipKey(accountID, friendID string) []byte {
	a, b := domain.FriendPair(accountID, friendID)
	return []byte(fmt.Sprintf("%s%s:%s", FriendshipPrefix, a, b))
}
