package gservice

import "google.golang.org/api/googleapi"

// Field masks. Every call declares one so Gmail returns only what the
// projections read.
const (
	FieldsMessageList googleapi.Field = "nextPageToken,messages(id,threadId)"
	FieldsMessageMeta googleapi.Field = "id,threadId,labelIds,snippet,payload,internalDate"
	FieldsMessageFull googleapi.Field = "id,threadId,labelIds,snippet,payload,internalDate,sizeEstimate"
	FieldsThread      googleapi.Field = "id,messages(id,threadId,labelIds,snippet,payload,internalDate)"
	FieldsLabelList   googleapi.Field = "labels(id,name,type)"
	FieldsProfile     googleapi.Field = "emailAddress,messagesTotal,threadsTotal,historyId"
)

// Method names used as descriptor identity, in logs and in metrics.
const (
	MethodMessagesList = "messages.list"
	MethodMessagesGet  = "messages.get"
	MethodThreadsGet   = "threads.get"
	MethodLabelsList   = "labels.list"
	MethodGetProfile   = "users.getProfile"
)

// metadataHeaders are requested for metadata-format message gets.
var metadataHeaders = []string{"From", "To", "Cc", "Subject", "Date"}
