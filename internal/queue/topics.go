package queue

// DefaultTopic carries every notification job regardless of producer;
// the dispatcher switches on the job kind, not the topic.
const DefaultTopic = "notification-jobs"
