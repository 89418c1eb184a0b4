// pkg/constant/endpoint.go
package constant

// 远端任务聊天服务的接口路径。带 %s 的模板通过 fmt.Sprintf 填充。
const (
	EndpointCreateReply   = "/api/task-chats/"
	EndpointComment       = "/api/taskchat/%s/"                    // PATCH / DELETE
	EndpointLikeChat      = "/api/like-chat/%s/%s/"                // userID, chatID
	EndpointDislikeChat   = "/api/dislike-chat/%s/%s/"             // userID, chatID
	EndpointFormattedLink = "/api/taskchat/%s/get-formatted-link/" // commentID
	EndpointChangeMessage = "/change-message/"
)
