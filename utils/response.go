package utils

import (
    "encoding/json"
    "log"
    "net/http"

    "payment-pipeline-api/models"
)

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
    SendJSON(w, status, models.APIResponse{
        Status:  "error",
        Message: message,
    })
}

func SendSuccessResponse(w http.ResponseWriter, response models.APIResponse) {
    SendJSON(w, http.StatusOK, response)
}

func SendJSON(w http.ResponseWriter, status int, response models.APIResponse) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    if err := json.NewEncoder(w).Encode(response); err != nil {
        log.Printf("Error encoding response: %v", err)
    }
}
